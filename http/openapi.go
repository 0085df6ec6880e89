package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"churnapi/ml"
)

var (
	openAPIOnce    sync.Once
	openAPIPayload []byte
	openAPIErr     error
)

// OpenAPIDocument 描述对外接口
func OpenAPIDocument() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Churn prediction API",
			Description: "Predicts whether a bank customer is likely to leave.",
			Version:     "1.0.0",
		},
		Paths: openapi3.NewPaths(),
	}

	health := openapi3.NewOperation()
	health.OperationID = "health"
	health.Summary = "Liveness check"
	health.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("Service is running").
		WithJSONSchema(openapi3.NewObjectSchema().WithProperty("status", openapi3.NewStringSchema())))
	doc.Paths.Set("/api/health", &openapi3.PathItem{Get: health})

	stats := openapi3.NewOperation()
	stats.OperationID = "dashboard"
	stats.Summary = "Offline evaluation statistics"
	stats.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("Dataset and model statistics").
		WithJSONSchema(dashboardSchema()))
	doc.Paths.Set("/api/dashboard", &openapi3.PathItem{Get: stats})

	predict := openapi3.NewOperation()
	predict.OperationID = "predict"
	predict.Summary = "Predict churn for one customer"
	predict.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(recordSchema()),
	}
	predict.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("Prediction result").
		WithJSONSchema(envelopeSchema()))
	predict.AddResponse(http.StatusBadRequest, openapi3.NewResponse().
		WithDescription("Missing body or features").
		WithJSONSchema(envelopeSchema()))
	predict.AddResponse(http.StatusInternalServerError, openapi3.NewResponse().
		WithDescription("Artifacts not loaded or inference failed").
		WithJSONSchema(envelopeSchema()))
	doc.Paths.Set("/api/predict", &openapi3.PathItem{Post: predict})

	return doc
}

func recordSchema() *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	for _, name := range ml.FeatureNames() {
		schema.WithProperty(name, openapi3.NewFloat64Schema())
	}
	schema.Required = ml.FeatureNames()
	return schema
}

func envelopeSchema() *openapi3.Schema {
	result := openapi3.NewObjectSchema().
		WithProperty("prediction", openapi3.NewIntegerSchema().WithMin(0).WithMax(1)).
		WithProperty("label", openapi3.NewStringSchema().WithEnum("Churn", "No Churn")).
		WithProperty("probability", openapi3.NewFloat64Schema().WithMin(0).WithMax(1))

	return openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("features_used", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("result", result).
		WithProperty("error", openapi3.NewStringSchema())
}

func dashboardSchema() *openapi3.Schema {
	metrics := openapi3.NewObjectSchema().
		WithProperty("nom", openapi3.NewStringSchema()).
		WithProperty("accuracy", openapi3.NewFloat64Schema()).
		WithProperty("f1", openapi3.NewFloat64Schema()).
		WithProperty("roc_auc", openapi3.NewFloat64Schema())

	return openapi3.NewObjectSchema().
		WithProperty("global", openapi3.NewObjectSchema().
			WithProperty("nb_clients", openapi3.NewIntegerSchema()).
			WithProperty("nb_features", openapi3.NewIntegerSchema()).
			WithProperty("taux_churn", openapi3.NewFloat64Schema())).
		WithProperty("models_baseline", openapi3.NewArraySchema().WithItems(metrics)).
		WithProperty("best_model", metrics).
		WithProperty("top_features", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema().
			WithProperty("feature", openapi3.NewStringSchema()).
			WithProperty("score", openapi3.NewFloat64Schema())))
}

func handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	openAPIOnce.Do(func() {
		openAPIPayload, openAPIErr = json.Marshal(OpenAPIDocument())
	})
	if openAPIErr != nil {
		respondJSON(w, http.StatusInternalServerError, PredictResponse{Error: openAPIErr.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(openAPIPayload)
}
