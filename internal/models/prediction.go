package models

import "time"

// Prediction is a forecasted metric value produced by predictor agents.
// The forecasting logic itself lives behind the agent boundary; the core
// only stores and aggregates the results.
type Prediction struct {
	ID             string    `json:"id" db:"id"`
	ServerID       string    `json:"server_id" db:"server_id"`
	MetricType     string    `json:"metric_type" db:"metric_type"`
	PredictedValue float64   `json:"predicted_value" db:"predicted_value"`
	Confidence     float64   `json:"confidence" db:"confidence"`
	HorizonHours   int       `json:"horizon_hours" db:"horizon_hours"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// CloudResource is an inventory record for a provisioned cloud resource.
type CloudResource struct {
	ID           string    `json:"id" db:"id"`
	Provider     string    `json:"provider" db:"provider"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	Name         string    `json:"name" db:"name"`
	Region       string    `json:"region" db:"region"`
	Status       string    `json:"status" db:"status"`
	CostPerMonth float64   `json:"cost_per_month" db:"cost_per_month"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
