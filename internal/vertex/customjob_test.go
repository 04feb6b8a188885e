package vertex

import (
	"testing"

	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"github.com/google/go-cmp/cmp"
	"github.com/raphaelgruber/jaketune/internal/config"
	"github.com/raphaelgruber/jaketune/internal/job"
	"github.com/raphaelgruber/jaketune/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/testing/protocmp"
)

var testConfig = Config{
	Project:       "jake-project",
	Location:      "us-central1",
	StagingBucket: "jake-staging",
	DefaultImage:  "us-docker.pkg.dev/jake/train:latest",
}

func TestBuildCustomJob(t *testing.T) {
	spec := job.Spec{
		RunID:         "jake-yi34b_1700000000_deadbeef",
		Experiment:    "Jake Yi34B",
		ComputeTarget: "gpu-cluster",
		Script:        "jake-train",
		Args: []string{
			"--config", "configs/training_config.yaml",
			"--data-dir", "gs://jake-data/prepared",
		},
		Environment: &config.EnvironmentSpec{
			Name:      "jake-env",
			Conda:     []string{"python=3.10"},
			Pip:       []string{"peft>=0.7", "bitsandbytes"},
			Variables: map[string]string{"HF_HOME": "/tmp/hf"},
		},
		MachineType:      "a2-highgpu-1g",
		AcceleratorType:  "NVIDIA_TESLA_A100",
		AcceleratorCount: 1,
	}

	got, err := buildCustomJob(testConfig, spec)
	require.NoError(t, err)

	want := &aiplatformpb.CustomJob{
		DisplayName: "jake-yi34b_1700000000_deadbeef",
		Labels:      map[string]string{"experiment": "jake-yi34b"},
		JobSpec: &aiplatformpb.CustomJobSpec{
			PersistentResourceId: "gpu-cluster",
			BaseOutputDirectory: &aiplatformpb.GcsDestination{
				OutputUriPrefix: "gs://jake-staging/runs/jake-yi34b_1700000000_deadbeef",
			},
			WorkerPoolSpecs: []*aiplatformpb.WorkerPoolSpec{{
				Task: &aiplatformpb.WorkerPoolSpec_ContainerSpec{
					ContainerSpec: &aiplatformpb.ContainerSpec{
						ImageUri: "us-docker.pkg.dev/jake/train:latest",
						Command: []string{
							"sh", "-c",
							`pip install --quiet -- 'peft>=0.7' 'bitsandbytes' && exec "$0" "$@"`,
						},
						Args: []string{
							"jake-train",
							"--config", "configs/training_config.yaml",
							"--data-dir", "/gcs/jake-data/prepared",
						},
						Env: []*aiplatformpb.EnvVar{
							{Name: job.EnvOutputDir, Value: "/gcs/jake-staging/runs/jake-yi34b_1700000000_deadbeef/outputs"},
							{Name: job.EnvMetricsURI, Value: "gs://jake-staging/runs/jake-yi34b_1700000000_deadbeef/metrics.json"},
							{Name: "HF_HOME", Value: "/tmp/hf"},
						},
					},
				},
				MachineSpec: &aiplatformpb.MachineSpec{
					MachineType:      "a2-highgpu-1g",
					AcceleratorType:  aiplatformpb.AcceleratorType_NVIDIA_TESLA_A100,
					AcceleratorCount: 1,
				},
				ReplicaCount: 1,
			}},
		},
	}

	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Errorf("buildCustomJob() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "gs://jake-staging/runs/jake-yi34b_1700000000_deadbeef/metrics.json", metricsURIOf(got))
}

func TestBuildCustomJob_Defaults(t *testing.T) {
	got, err := buildCustomJob(testConfig, job.Spec{
		RunID:  "r1",
		Script: "python3 src/train.py",
		Args:   []string{"--data-dir=gs://b/data"},
	})
	require.NoError(t, err)

	require.Len(t, got.GetJobSpec().GetWorkerPoolSpecs(), 1)
	pool := got.GetJobSpec().GetWorkerPoolSpecs()[0]
	container := pool.GetContainerSpec()

	assert.Empty(t, got.GetJobSpec().GetPersistentResourceId())
	assert.Equal(t, testConfig.DefaultImage, container.GetImageUri())
	assert.Equal(t, []string{"python3", "src/train.py"}, container.GetCommand())
	assert.Equal(t, []string{"--data-dir=/gcs/b/data"}, container.GetArgs())
	assert.Equal(t, defaultMachineType, pool.GetMachineSpec().GetMachineType())
	assert.Equal(t, aiplatformpb.AcceleratorType_ACCELERATOR_TYPE_UNSPECIFIED, pool.GetMachineSpec().GetAcceleratorType())
}

func TestBuildCustomJob_BaseImageOverride(t *testing.T) {
	got, err := buildCustomJob(testConfig, job.Spec{
		RunID:       "r1",
		Script:      "jake-train",
		Environment: &config.EnvironmentSpec{BaseImage: "custom:1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "custom:1", got.GetJobSpec().GetWorkerPoolSpecs()[0].GetContainerSpec().GetImageUri())
}

func TestBuildCustomJob_UnknownAccelerator(t *testing.T) {
	for _, accel := range []string{"NVIDIA_TESLA_A1000", "ACCELERATOR_TYPE_UNSPECIFIED"} {
		t.Run(accel, func(t *testing.T) {
			_, err := buildCustomJob(testConfig, job.Spec{
				RunID:            "r1",
				Script:           "jake-train",
				AcceleratorType:  accel,
				AcceleratorCount: 1,
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), accel)
		})
	}
}

func TestFUSEPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gs://bucket/data", "/gcs/bucket/data"},
		{"gs://bucket", "/gcs/bucket"},
		{"/local/data", "/local/data"},
		{"--epochs", "--epochs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FUSEPath(tt.in), tt.in)
	}
}

func TestLabelValue(t *testing.T) {
	assert.Equal(t, "jake-yi34b", labelValue("Jake Yi34B"))
	assert.Len(t, labelValue(string(make([]byte, 100))), 1)
}

func TestMapState(t *testing.T) {
	tests := []struct {
		state aiplatformpb.JobState
		want  models.RunStatus
	}{
		{aiplatformpb.JobState_JOB_STATE_UNSPECIFIED, models.RunStatusQueued},
		{aiplatformpb.JobState_JOB_STATE_QUEUED, models.RunStatusQueued},
		{aiplatformpb.JobState_JOB_STATE_PENDING, models.RunStatusQueued},
		{aiplatformpb.JobState_JOB_STATE_RUNNING, models.RunStatusRunning},
		{aiplatformpb.JobState_JOB_STATE_CANCELLING, models.RunStatusRunning},
		{aiplatformpb.JobState_JOB_STATE_PAUSED, models.RunStatusRunning},
		{aiplatformpb.JobState_JOB_STATE_UPDATING, models.RunStatusRunning},
		{aiplatformpb.JobState_JOB_STATE_SUCCEEDED, models.RunStatusCompleted},
		{aiplatformpb.JobState_JOB_STATE_PARTIALLY_SUCCEEDED, models.RunStatusCompleted},
		{aiplatformpb.JobState_JOB_STATE_FAILED, models.RunStatusFailed},
		{aiplatformpb.JobState_JOB_STATE_CANCELLED, models.RunStatusFailed},
		{aiplatformpb.JobState_JOB_STATE_EXPIRED, models.RunStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, mapState(tt.state))
			assert.Equal(t, tt.want.IsTerminal(), mapState(tt.state).IsTerminal())
		})
	}
}

func TestConfigEndpoint(t *testing.T) {
	assert.Equal(t, "projects/jake-project/locations/us-central1", testConfig.parent())
	assert.Equal(t, "us-central1-aiplatform.googleapis.com:443", testConfig.endpoint())
}
