package vertex

import (
	"fmt"
	"regexp"
	"strings"

	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"github.com/raphaelgruber/jaketune/internal/job"
	"github.com/raphaelgruber/jaketune/internal/storage"
)

// fuseRoot is where Vertex mounts Cloud Storage inside training containers.
const fuseRoot = "/gcs/"

const defaultMachineType = "n1-standard-8"

// RunDir is the base output directory of a run in the staging bucket.
func RunDir(bucket, runID string) string {
	return "gs://" + strings.TrimPrefix(bucket, "gs://") + "/runs/" + runID
}

// FUSEPath rewrites gs://bucket/path to the mounted /gcs/bucket/path.
// Other values are returned unchanged.
func FUSEPath(s string) string {
	if !storage.IsGCS(s) {
		return s
	}
	return fuseRoot + strings.TrimPrefix(s, "gs://")
}

func buildCustomJob(cfg Config, spec job.Spec) (*aiplatformpb.CustomJob, error) {
	runDir := RunDir(cfg.StagingBucket, spec.RunID)

	image := cfg.DefaultImage
	var pip []string
	env := []*aiplatformpb.EnvVar{
		{Name: job.EnvOutputDir, Value: FUSEPath(runDir + "/outputs")},
		{Name: job.EnvMetricsURI, Value: runDir + "/metrics.json"},
	}
	if e := spec.Environment; e != nil {
		if e.BaseImage != "" {
			image = e.BaseImage
		}
		pip = e.Pip
		for _, k := range sortedKeys(e.Variables) {
			env = append(env, &aiplatformpb.EnvVar{Name: k, Value: e.Variables[k]})
		}
	}

	args := make([]string, len(spec.Args))
	for i, a := range spec.Args {
		args[i] = rewriteArg(a)
	}
	command, args := job.ContainerCommand(spec.Script, args, pip)

	machineType := spec.MachineType
	if machineType == "" {
		machineType = defaultMachineType
	}
	machine := &aiplatformpb.MachineSpec{MachineType: machineType}
	if spec.AcceleratorType != "" {
		accel, ok := aiplatformpb.AcceleratorType_value[spec.AcceleratorType]
		if !ok || accel == int32(aiplatformpb.AcceleratorType_ACCELERATOR_TYPE_UNSPECIFIED) {
			return nil, fmt.Errorf("unknown accelerator type %q", spec.AcceleratorType)
		}
		machine.AcceleratorType = aiplatformpb.AcceleratorType(accel)
		machine.AcceleratorCount = max(spec.AcceleratorCount, 1)
	}

	return &aiplatformpb.CustomJob{
		DisplayName: spec.RunID,
		Labels:      map[string]string{"experiment": labelValue(spec.Experiment)},
		JobSpec: &aiplatformpb.CustomJobSpec{
			PersistentResourceId: spec.ComputeTarget,
			BaseOutputDirectory: &aiplatformpb.GcsDestination{
				OutputUriPrefix: runDir,
			},
			WorkerPoolSpecs: []*aiplatformpb.WorkerPoolSpec{{
				Task: &aiplatformpb.WorkerPoolSpec_ContainerSpec{
					ContainerSpec: &aiplatformpb.ContainerSpec{
						ImageUri: image,
						Command:  command,
						Args:     args,
						Env:      env,
					},
				},
				MachineSpec:  machine,
				ReplicaCount: 1,
			}},
		},
	}, nil
}

// rewriteArg maps gs:// values, including --flag=gs://... forms, to the
// FUSE mount.
func rewriteArg(arg string) string {
	if flag, value, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(flag, "-") {
		return flag + "=" + FUSEPath(value)
	}
	return FUSEPath(arg)
}

var labelInvalid = regexp.MustCompile(`[^a-z0-9_-]+`)

// labelValue coerces s into a valid resource label value.
func labelValue(s string) string {
	v := labelInvalid.ReplaceAllString(strings.ToLower(s), "-")
	if len(v) > 63 {
		v = v[:63]
	}
	return v
}

func metricsURIOf(j *aiplatformpb.CustomJob) string {
	for _, pool := range j.GetJobSpec().GetWorkerPoolSpecs() {
		for _, e := range pool.GetContainerSpec().GetEnv() {
			if e.GetName() == job.EnvMetricsURI {
				return e.GetValue()
			}
		}
	}
	if prefix := j.GetJobSpec().GetBaseOutputDirectory().GetOutputUriPrefix(); prefix != "" {
		return strings.TrimSuffix(prefix, "/") + "/metrics.json"
	}
	return ""
}
