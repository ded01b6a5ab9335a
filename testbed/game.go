package testbed

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/anima-descriptors/engine"
	"github.com/spaghettifunk/anima-descriptors/engine/config"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spaghettifunk/anima-descriptors/engine/math"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors/headless"
	"github.com/spaghettifunk/anima-descriptors/engine/systems"
	"golang.org/x/exp/rand"
)

// frames a load phase lasts before the number of active contexts changes
const loadPhaseFrames = 60

var descriptorPalette = []descriptors.DescriptorType{
	descriptors.DescriptorTypeUniformBuffer,
	descriptors.DescriptorTypeUniformBufferDynamic,
	descriptors.DescriptorTypeCombinedImageSampler,
	descriptors.DescriptorTypeSampledImage,
	descriptors.DescriptorTypeSampler,
	descriptors.DescriptorTypeStorageBuffer,
	descriptors.DescriptorTypeStorageBufferDynamic,
	descriptors.DescriptorTypeStorageImage,
	descriptors.DescriptorTypeUniformTexelBuffer,
}

type TestGame struct {
	*engine.Game
}

/**
 * @brief A binding shape draws are issued with: one reflection info per set.
 */
type workloadShape struct {
	signature *descriptors.LayoutSignature
	sets      []*descriptors.ShaderDescriptorInfo
	layout    *descriptors.PipelineLayout
}

// renderContext records draws on its own goroutine. inFlight holds the
// registry of each frame slot until that frame's fence has signaled.
type renderContext struct {
	index    int
	writers  map[*descriptors.ShaderDescriptorInfo]*headless.Writer
	inFlight []*descriptors.PoolSetRegistry
	draws    []int
}

type gameState struct {
	device   *headless.Device
	rng      *rand.Rand
	shapes   []*workloadShape
	contexts []*renderContext
	active   int
	err      error
	errOnce  sync.Once
}

func NewTestGame(cfg *config.Config, device *headless.Device) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:      "Anima descriptor testbed",
				Workers:   cfg.Simulation.Contexts,
				MaxFrames: cfg.Simulation.Frames,
				Config:    cfg,
			},
			State: &gameState{
				device: device,
				rng:    rand.New(rand.NewSource(cfg.Simulation.Seed)),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) sim() config.SimulationConfig {
	return g.ApplicationConfig.Config.Simulation
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing %s...", g.ApplicationConfig.Name)
	st := g.state()
	sim := g.sim()

	ds := g.SystemManager.DescriptorSystem()
	for i := 0; i < sim.Shapes; i++ {
		shape, err := g.generateShape(st.rng)
		if err != nil {
			return err
		}
		if shape.layout, err = ds.Layout(shape.signature); err != nil {
			return err
		}
		st.shapes = append(st.shapes, shape)
	}

	for i := 0; i < sim.Contexts; i++ {
		rc := &renderContext{
			index:    i,
			writers:  make(map[*descriptors.ShaderDescriptorInfo]*headless.Writer),
			inFlight: make([]*descriptors.PoolSetRegistry, sim.FramesInFlight),
		}
		for _, shape := range st.shapes {
			for _, info := range shape.sets {
				w, err := descriptors.NewBindingWriter[headless.ImageInfo, headless.BufferInfo, headless.TexelView](info)
				if err != nil {
					return err
				}
				rc.writers[info] = w
			}
		}
		st.contexts = append(st.contexts, rc)
	}
	core.LogInfo("%d shapes compiled into %d pipeline layouts, %d render contexts", len(st.shapes), ds.LayoutCount(), len(st.contexts))
	return nil
}

func (g *TestGame) generateShape(rng *rand.Rand) (*workloadShape, error) {
	shape := &workloadShape{signature: descriptors.NewLayoutSignature()}
	setCount := 1 + rng.Intn(2)
	for set := 0; set < setCount; set++ {
		bindings := math.Clamp(1+rng.Intn(5), 1, 4)
		decls := make([]descriptors.DescriptorDeclaration, bindings)
		for b := range decls {
			t := descriptorPalette[rng.Intn(len(descriptorPalette))]
			count := uint32(1)
			if t.Info() == descriptors.InfoKindImage {
				count = uint32(1 + rng.Intn(3))
			}
			decls[b] = descriptors.DescriptorDeclaration{Binding: uint32(b), Type: t, Count: count, Set: set}
		}
		info, err := descriptors.NewShaderDescriptorInfo(decls...)
		if err != nil {
			return nil, err
		}
		if err := shape.signature.AddBindings(descriptors.ShaderStageVertex|descriptors.ShaderStageFragment, set, info); err != nil {
			return nil, err
		}
		shape.sets = append(shape.sets, info)
	}
	return shape, nil
}

// Update plans the frame: how many contexts record and which shapes they draw.
func (g *TestGame) Update(frame uint64) error {
	st := g.state()
	sim := g.sim()

	// alternate busy and quiet phases so idle registries age out
	if frame%loadPhaseFrames == 0 {
		if (frame/loadPhaseFrames)%2 == 0 {
			st.active = sim.Contexts
		} else {
			st.active = math.Clamp(sim.Contexts/2, 1, sim.Contexts)
		}
	}

	jitter := 0
	if sim.DrawsPerFrame > 0 {
		jitter = st.rng.Intn(sim.DrawsPerFrame/4+1) - sim.DrawsPerFrame/8
	}
	draws := math.Clamp(sim.DrawsPerFrame+jitter, 0, 2*sim.DrawsPerFrame)

	for _, rc := range st.contexts {
		rc.draws = rc.draws[:0]
	}
	// contiguous batches, the last active context may get fewer draws
	perContext := math.DivCeil(draws, st.active)
	for d := 0; d < draws; d++ {
		rc := st.contexts[d/perContext]
		rc.draws = append(rc.draws, st.rng.Intn(len(st.shapes)))
	}
	return nil
}

// Render retires the registries of the frame slot being reused, then records
// every active context in parallel on the job system.
func (g *TestGame) Render(frame uint64) (int, error) {
	st := g.state()
	ds := g.SystemManager.DescriptorSystem()
	slot := int(frame % uint64(len(st.contexts[0].inFlight)))

	// the fence of the frame that used this slot has signaled
	for _, rc := range st.contexts {
		if r := rc.inFlight[slot]; r != nil {
			if err := ds.ReleaseRegistry(r); err != nil {
				return 0, err
			}
			rc.inFlight[slot] = nil
		}
	}

	var allocations atomic.Int64
	var wg sync.WaitGroup
	js := g.SystemManager.JobSystem()
	for _, rc := range st.contexts[:st.active] {
		rc := rc
		wg.Add(1)
		js.Submit(systems.JobTask{
			OnStart: func() error {
				n, err := g.record(ds, rc, slot, frame)
				allocations.Add(int64(n))
				return err
			},
			OnFailure: func(err error) {
				st.errOnce.Do(func() { st.err = err })
			},
			OnCompletionCallback: wg.Done,
		})
	}
	wg.Wait()

	if st.err != nil {
		return 0, st.err
	}
	return int(allocations.Load()), nil
}

func (g *TestGame) record(ds *systems.DescriptorSystem, rc *renderContext, slot int, frame uint64) (int, error) {
	st := g.state()
	registry, err := ds.AcquireRegistry()
	if err != nil {
		return 0, err
	}
	rc.inFlight[slot] = registry

	out := make([]descriptors.SetHandle, 2)
	allocations := 0
	for i, shapeIndex := range rc.draws {
		shape := st.shapes[shapeIndex]
		layout := shape.layout.Layout()
		if err := registry.Allocate(layout, out); err != nil {
			return allocations, fmt.Errorf("context %d draw %d: %w", rc.index, i, err)
		}
		allocations++

		for set, info := range shape.sets {
			w := rc.writers[info]
			if err := fillBindings(w, info, frame, i); err != nil {
				return allocations, err
			}
			// a freshly allocated set has no contents, it is always written
			if err := st.device.UpdateSets(out[set], w.Writes()); err != nil {
				return allocations, err
			}
			w.ClearDirty()
		}
	}
	return allocations, nil
}

// fillBindings points every descriptor of info at per-draw resources.
func fillBindings(w *headless.Writer, info *descriptors.ShaderDescriptorInfo, frame uint64, draw int) error {
	resource := frame<<20 | uint64(draw)
	for _, d := range info.Descriptors {
		for e := uint32(0); e < d.Count; e++ {
			var err error
			switch {
			case d.Type.HasDynamicOffset():
				_, err = w.WriteDynamicBuffer(d.Binding, e, headless.BufferInfo{Buffer: uint64(d.Binding) + 1, Range: 256}, uint32(draw)*256)
			case d.Type.Info() == descriptors.InfoKindBuffer:
				_, err = w.WriteBuffer(d.Binding, e, headless.BufferInfo{Buffer: resource, Range: 256})
			case d.Type.Info() == descriptors.InfoKindImage:
				_, err = w.WriteImage(d.Binding, e, headless.ImageInfo{Sampler: 1, View: resource + uint64(e), Layout: 5})
			default:
				_, err = w.WriteTexelView(d.Binding, e, headless.TexelView(resource))
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Shutdown hands back every registry still waiting on a frame.
func (g *TestGame) Shutdown() error {
	ds := g.SystemManager.DescriptorSystem()
	for _, rc := range g.state().contexts {
		for slot, r := range rc.inFlight {
			if r == nil {
				continue
			}
			if err := ds.ReleaseRegistry(r); err != nil {
				return err
			}
			rc.inFlight[slot] = nil
		}
	}
	return nil
}
