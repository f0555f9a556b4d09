package models

// VolumeConfig is the compose override document streamed into the last
// invocation of a boot. It maps a service name to its bind mounts.
type VolumeConfig struct {
	Services map[string]ServiceVolumes `yaml:"services"`
}

// ServiceVolumes holds `host_path:container_path` bindings for one service.
type ServiceVolumes struct {
	Volumes []string `yaml:"volumes"`
}

// Bind appends a host:container binding to service.
func (v *VolumeConfig) Bind(service, hostPath, containerPath string) {
	if v.Services == nil {
		v.Services = make(map[string]ServiceVolumes)
	}
	sv := v.Services[service]
	sv.Volumes = append(sv.Volumes, hostPath+":"+containerPath)
	v.Services[service] = sv
}
