package openapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Generator builds the OpenAPI 3.0 document for the dashboard API.
type Generator struct {
	measureIDs []string
	version    string
	baseURL    string
}

// NewGenerator creates a generator. measureIDs populates the enum of the
// measure path parameter.
func NewGenerator(measureIDs []string, version, baseURL string) *Generator {
	return &Generator{measureIDs: measureIDs, version: version, baseURL: baseURL}
}

// GenerateSpec produces the OpenAPI 3.0 spec as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	recentParam := map[string]interface{}{
		"name":        "recent",
		"in":          "query",
		"description": "Rows in the recent patients table",
		"schema":      map[string]interface{}{"type": "integer", "minimum": 1},
	}

	paths := map[string]interface{}{
		"/api/v1/dashboard": map[string]interface{}{
			"get": g.operation("getDashboard", "Dashboard", "Full dashboard report",
				[]map[string]interface{}{recentParam},
				map[string]interface{}{
					"200": jsonResponse("Dashboard report", "#/components/schemas/Report"),
					"400": jsonResponse("Invalid query parameter", "#/components/schemas/Error"),
				}),
		},
		"/api/v1/dashboard/metrics": map[string]interface{}{
			"get": g.operation("getMetrics", "Dashboard", "Headline counts",
				nil,
				map[string]interface{}{
					"200": jsonResponse("Metrics", "#/components/schemas/Metrics"),
				}),
		},
		"/api/v1/dashboard/measures": map[string]interface{}{
			"get": g.operation("listMeasures", "Measures", "Measure catalogue",
				nil,
				map[string]interface{}{
					"200": jsonArrayResponse("Measure definitions", "#/components/schemas/MeasureDefinition"),
				}),
		},
		"/api/v1/dashboard/measures/{id}": map[string]interface{}{
			"get": g.operation("evaluateMeasure", "Measures", "Evaluate one measure",
				[]map[string]interface{}{
					{
						"name":     "id",
						"in":       "path",
						"required": true,
						"schema":   map[string]interface{}{"type": "string", "enum": g.measureIDs},
					},
					recentParam,
				},
				map[string]interface{}{
					"200": jsonResponse("Measure result", "#/components/schemas/MeasureReport"),
					"404": jsonResponse("Unknown measure", "#/components/schemas/Error"),
				}),
		},
		"/api/v1/patients": map[string]interface{}{
			"get": g.operation("listPatients", "Patients", "Paginated roster",
				[]map[string]interface{}{
					queryParam("limit", "integer", "Page size (max 100)"),
					queryParam("offset", "integer", "Records to skip"),
					queryParam("outcome", "string", "Filter by treatment outcome"),
					queryParam("resistance", "string", "Filter by drug resistance status"),
				},
				map[string]interface{}{
					"200": jsonResponse("Page of patients", "#/components/schemas/PatientPage"),
				}),
		},
		"/api/v1/patients/{id}": map[string]interface{}{
			"get": g.operation("getPatient", "Patients", "One patient record",
				[]map[string]interface{}{
					{"name": "id", "in": "path", "required": true, "schema": map[string]string{"type": "string"}},
				},
				map[string]interface{}{
					"200": jsonResponse("Patient", "#/components/schemas/PatientRecord"),
					"404": jsonResponse("Not found", "#/components/schemas/Error"),
				}),
		},
		"/api/v1/patients/reload": map[string]interface{}{
			"post": g.operation("reloadPatients", "Patients", "Re-read the roster source",
				nil,
				map[string]interface{}{
					"200": jsonResponse("Reload result", "#/components/schemas/ReloadResult"),
					"500": jsonResponse("Source unavailable", "#/components/schemas/Error"),
				}),
		},
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "TB Surveillance Dashboard API",
			"version":     g.version,
			"description": "Aggregate views over the migrant-worker TB patient roster",
		},
		"servers": []map[string]string{
			{"url": g.baseURL},
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": buildComponentSchemas(),
		},
	}
}

func (g *Generator) operation(id, tag, summary string, params []map[string]interface{}, responses map[string]interface{}) map[string]interface{} {
	op := map[string]interface{}{
		"summary":     summary,
		"operationId": id,
		"tags":        []string{tag},
		"responses":   responses,
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

func queryParam(name, typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"schema":      map[string]string{"type": typ},
	}
}

func jsonResponse(description, schemaRef string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]interface{}{"$ref": schemaRef},
			},
		},
	}
}

func jsonArrayResponse(description, itemRef string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": arrayOf(itemRef),
			},
		},
	}
}

func arrayOf(itemRef string) map[string]interface{} {
	return map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"$ref": itemRef},
	}
}

func object(props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": props}
}

var (
	str     = map[string]string{"type": "string"}
	integer = map[string]string{"type": "integer"}
	dateTs  = map[string]string{"type": "string", "format": "date-time"}
)

// buildComponentSchemas mirrors the JSON shapes produced by the patient and
// surveillance handlers.
func buildComponentSchemas() map[string]interface{} {
	return map[string]interface{}{
		"PatientRecord": object(map[string]interface{}{
			"patient_id":        str,
			"name":              str,
			"tb_type":           str,
			"drug_resistance":   str,
			"treatment_outcome": str,
			"diagnosis_date":    map[string]string{"type": "string", "format": "date"},
			"region":            str,
		}),
		"CategoryCount": object(map[string]interface{}{
			"label": str,
			"count": integer,
		}),
		"MonthCount": object(map[string]interface{}{
			"label": str,
			"key":   str,
			"year":  integer,
			"month": integer,
			"count": integer,
		}),
		"Metrics": object(map[string]interface{}{
			"total_patients": integer,
			"cured":          integer,
			"on_treatment":   integer,
			"drug_resistant": integer,
		}),
		"Report": object(map[string]interface{}{
			"id":                 map[string]string{"type": "string", "format": "uuid"},
			"generated_at":       dateTs,
			"source":             str,
			"loaded_at":          dateTs,
			"metrics":            map[string]string{"$ref": "#/components/schemas/Metrics"},
			"tb_types":           arrayOf("#/components/schemas/CategoryCount"),
			"drug_resistance":    arrayOf("#/components/schemas/CategoryCount"),
			"treatment_outcomes": arrayOf("#/components/schemas/CategoryCount"),
			"regions":            arrayOf("#/components/schemas/CategoryCount"),
			"cases_by_month":     arrayOf("#/components/schemas/MonthCount"),
			"recent_patients":    arrayOf("#/components/schemas/PatientRecord"),
			"excluded": object(map[string]interface{}{
				"cases_by_month":  integer,
				"recent_patients": integer,
			}),
			"data_issues": integer,
		}),
		"MeasureDefinition": object(map[string]interface{}{
			"id":          str,
			"name":        str,
			"description": str,
		}),
		"MeasureReport": object(map[string]interface{}{
			"measure_id":   str,
			"measure_name": str,
			"generated_at": dateTs,
			"results":      map[string]interface{}{},
			"excluded":     integer,
		}),
		"PatientPage": object(map[string]interface{}{
			"data":     arrayOf("#/components/schemas/PatientRecord"),
			"total":    integer,
			"limit":    integer,
			"offset":   integer,
			"has_more": map[string]string{"type": "boolean"},
		}),
		"ReloadResult": object(map[string]interface{}{
			"source":  str,
			"loaded":  integer,
			"skipped": integer,
			"issues":  arrayOf("#/components/schemas/DataIssue"),
		}),
		"DataIssue": object(map[string]interface{}{
			"patient_id": str,
			"index":      integer,
			"field":      str,
			"problem":    str,
		}),
		"Error": object(map[string]interface{}{
			"message": str,
		}),
	}
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>TB Surveillance Dashboard API</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({ url: "/api/openapi.json", dom_id: '#swagger-ui', deepLinking: true })
  </script>
</body>
</html>`

// RegisterRoutes registers /openapi.json and /docs on apiGroup, which is
// expected to be mounted at /api.
func (g *Generator) RegisterRoutes(apiGroup *echo.Group) {
	apiGroup.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	apiGroup.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
