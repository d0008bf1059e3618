// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"
)

// HealthStatusOK is the status reported by the health endpoint.
const HealthStatusOK = "ok"

// HealthCheckBody is the health check payload.
type HealthCheckBody struct {
	Status  string `json:"status" doc:"Always ok while the process serves requests"`
	Service string `json:"service" doc:"Service name"`
}

// HealthCheckOutput represents health check response.
type HealthCheckOutput struct {
	Body HealthCheckBody
}

// HealthCheck returns a static health handler reporting service as its name.
func HealthCheck(service string) func(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	return func(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
		return &HealthCheckOutput{
			Body: HealthCheckBody{
				Status:  HealthStatusOK,
				Service: service,
			},
		}, nil
	}
}
