package platform

import "time"

// JobStatus enumerates training job lifecycle states.
type JobStatus string

const (
	JobPending    JobStatus = "Pending"
	JobInProgress JobStatus = "InProgress"
	JobCompleted  JobStatus = "Completed"
	JobFailed     JobStatus = "Failed"
	JobStopping   JobStatus = "Stopping"
	JobStopped    JobStatus = "Stopped"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobStopped:
		return true
	}
	return false
}

// EndpointStatus enumerates endpoint lifecycle states.
type EndpointStatus string

const (
	EndpointCreating  EndpointStatus = "Creating"
	EndpointInService EndpointStatus = "InService"
	EndpointUpdating  EndpointStatus = "Updating"
	EndpointFailed    EndpointStatus = "Failed"
	EndpointDeleting  EndpointStatus = "Deleting"
)

// TrainingJob describes a managed fine-tuning job.
type TrainingJob struct {
	Name            string            `json:"name"`
	Status          JobStatus         `json:"status"`
	FailureReason   string            `json:"failureReason,omitempty"`
	BaseModel       string            `json:"baseModel"`
	Hyperparameters map[string]string `json:"hyperparameters,omitempty"`
	TrainDataURL    string            `json:"trainDataUrl"`
	ValidationURL   string            `json:"validationDataUrl,omitempty"`
	OutputURL       string            `json:"outputUrl"`
	ModelDataURL    string            `json:"modelDataUrl,omitempty"`
	InstanceType    string            `json:"instanceType"`
	RoleARN         string            `json:"roleArn,omitempty"`
	CreatedAt       time.Time         `json:"createdAt,omitempty"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
}

// CreateTrainingJobRequest submits a fine-tuning job.
type CreateTrainingJobRequest struct {
	Name            string            `json:"name"`
	BaseModel       string            `json:"baseModel"`
	Hyperparameters map[string]string `json:"hyperparameters,omitempty"`
	TrainDataURL    string            `json:"trainDataUrl"`
	ValidationURL   string            `json:"validationDataUrl,omitempty"`
	OutputURL       string            `json:"outputUrl"`
	InstanceType    string            `json:"instanceType"`
	RoleARN         string            `json:"roleArn,omitempty"`
	MaxRuntime      time.Duration     `json:"-"`
	MaxRuntimeSecs  int               `json:"maxRuntimeSeconds,omitempty"`
	ClientToken     string            `json:"clientToken,omitempty"`
}

// Endpoint describes a hosted inference endpoint.
type Endpoint struct {
	Name          string            `json:"name"`
	Status        EndpointStatus    `json:"status"`
	FailureReason string            `json:"failureReason,omitempty"`
	ModelDataURL  string            `json:"modelDataUrl"`
	InstanceType  string            `json:"instanceType"`
	InstanceCount int               `json:"instanceCount"`
	Compilation   map[string]string `json:"compilation,omitempty"`
	CreatedAt     time.Time         `json:"createdAt,omitempty"`
}

// CreateEndpointRequest deploys a model as a hosted endpoint.
type CreateEndpointRequest struct {
	Name          string            `json:"name"`
	ModelDataURL  string            `json:"modelDataUrl"`
	InstanceType  string            `json:"instanceType"`
	InstanceCount int               `json:"instanceCount"`
	Compilation   map[string]string `json:"compilation,omitempty"`
	RoleARN       string            `json:"roleArn,omitempty"`
	ClientToken   string            `json:"clientToken,omitempty"`
}

// MetricDatapoint is one sample returned by the monitoring query API.
type MetricDatapoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricsQuery selects monitoring samples for an endpoint.
type MetricsQuery struct {
	Endpoint  string
	Metric    string
	Statistic string
	Window    time.Duration
}

// MetricsResult holds monitoring samples for one query.
type MetricsResult struct {
	Metric     string            `json:"metric"`
	Statistic  string            `json:"statistic"`
	Datapoints []MetricDatapoint `json:"datapoints"`
}
