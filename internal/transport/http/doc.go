// Package http implements the read-only HTTP API served by `macrocli serve`.
// Handlers stay thin: they parse and validate the request, call a service from
// macrocli/internal/services and render the result with go-chi/render.
//
// # Routes
//
//	GET /api/health               health of the processed outputs
//	GET /api/version              build information
//	GET /api/datasets             processed tables with row and column counts
//	GET /api/datasets/{name}      JSON rows, ?from=YYYY-MM&to=YYYY-MM&columns=a,b
//	GET /api/datasets/{name}/csv  the table file as written by the pipeline
//	GET /api/analysis             analytics report for final_dataset.csv
//	GET /metrics                  Prometheus exposition
//
// # Errors
//
// Every failure goes through errors.ErrorHandler and is returned as RFC 7807
// problem details:
//
//	{
//	    "type": "/errors/dataset/not-found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "dataset clean_news_sentiment.csv not found",
//	    "instance": "/api/datasets/clean_news_sentiment.csv",
//	    "trace_id": "4bf92f35..."
//	}
package http
