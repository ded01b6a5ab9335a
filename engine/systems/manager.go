package systems

import (
	"github.com/spaghettifunk/anima-descriptors/engine/config"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
)

type SystemManager struct {
	jobSystem        *JobSystem
	descriptorSystem *DescriptorSystem
}

func NewSystemManager(cfg *config.Config, device descriptors.NativeDevice, clock descriptors.FrameClock, workers int) (*SystemManager, error) {
	js, err := NewJobSystem(workers, workers)
	if err != nil {
		return nil, err
	}
	ds, err := NewDescriptorSystem(&cfg.Descriptors, device, clock)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		jobSystem:        js,
		descriptorSystem: ds,
	}, nil
}

func (sm *SystemManager) JobSystem() *JobSystem {
	return sm.jobSystem
}

func (sm *SystemManager) DescriptorSystem() *DescriptorSystem {
	return sm.descriptorSystem
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.jobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.descriptorSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
