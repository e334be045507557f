package main

import (
	"math"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/ambisonic"
	"github.com/grupodiana/brt/diag"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/listener"
	"github.com/grupodiana/brt/ports"
	"github.com/grupodiana/brt/sdn"
)

// movingSource drives one SourceConfig's circular orbit and tone
// generator, independent of which listener model renders it.
type movingSource struct {
	cfg       SourceConfig
	phaseRad  float64 // orbital phase
	toneAngle float64 // oscillator phase, radians
}

func newMovingSource(cfg SourceConfig) *movingSource {
	return &movingSource{cfg: cfg, phaseRad: cfg.StartPhase * math.Pi / 180}
}

// advance steps the source by one block and returns its mono input
// (a sine tone) and its world transform this block.
func (s *movingSource) advance(blockSize, sampleRate int) ([]float64, geom.Transform) {
	tone := make([]float64, blockSize)
	toneStep := 2 * math.Pi * s.cfg.ToneHz / float64(sampleRate)
	for i := range tone {
		tone[i] = 0.2 * math.Sin(s.toneAngle)
		s.toneAngle += toneStep
	}
	s.toneAngle = math.Mod(s.toneAngle, 2*math.Pi)

	pos := geom.Vector3{
		X: s.cfg.RadiusM * math.Cos(s.phaseRad),
		Y: s.cfg.HeightM,
		Z: s.cfg.RadiusM * math.Sin(s.phaseRad),
	}
	s.phaseRad += 2 * math.Pi * s.cfg.SpeedHz * float64(blockSize) / float64(sampleRate)
	s.phaseRad = math.Mod(s.phaseRad, 2*math.Pi)
	return tone, geom.Transform{Position: pos}
}

// Engine wires one of brt/listener's models, the demo's moving sources,
// the command dispatcher, and the diagnostics ring into a runnable
// per-block render step. This is the concrete "outer dataflow graph"
// spec.md §1 names as an external collaborator: the core only needs the
// typed ports and listener-model methods Engine calls here.
type Engine struct {
	cfg    Config
	params brt.GlobalParameters

	hrtfModel      *listener.HRTFModel
	ambisonicModel *listener.AmbisonicModel
	env            *listener.SDNEnvironmentModel

	dispatcher *ports.Dispatcher
	ring       *diag.Ring

	sources []*movingSource
}

// NewEngine builds and connects every configured source onto a listener
// model chosen by cfg.UseAmbisonic, synthesizing a placeholder HRTF/
// Ambisonic-IR service in place of the out-of-scope SOFA loader.
func NewEngine(cfg Config) (*Engine, error) {
	params, err := cfg.GlobalParameters()
	if err != nil {
		return nil, err
	}

	hrtfSvc, err := synthesizeHRTF(cfg.SampleRate, cfg.BlockSize, cfg.HeadRadiusM)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		params:     params,
		dispatcher: ports.NewDispatcher(),
		ring:       diag.NewRing(256),
	}

	norm, err := brt.ParseAmbisonicNormalization(cfg.AmbisonicNorm)
	if err != nil {
		return nil, err
	}

	if cfg.UseAmbisonic {
		e.ambisonicModel = listener.NewAmbisonicModel(params, cfg.HeadRadiusM, cfg.MeasurementDistanceM, cfg.AmbisonicOrder, norm)
		table, err := ambisonic.Build(hrtfSvc, cfg.AmbisonicOrder, norm, params.Convention, ambisonic.DefaultSpeakerLayout())
		if err != nil {
			return nil, err
		}
		if err := e.ambisonicModel.SetAmbisonicIR(table); err != nil {
			return nil, err
		}
		e.ambisonicModel.SetFeatureFlags(cfg.FeatureFlags)
		e.dispatcher.Register("main", e.ambisonicModel)
	} else {
		e.hrtfModel = listener.NewHRTFModel(params, cfg.HeadRadiusM, cfg.MeasurementDistanceM)
		if err := e.hrtfModel.SetHRTF(hrtfSvc); err != nil {
			return nil, err
		}
		e.hrtfModel.SetFeatureFlags(cfg.FeatureFlags)
		e.dispatcher.Register("main", e.hrtfModel)
	}

	if cfg.Room.Enabled && e.hrtfModel != nil {
		e.env = listener.NewSDNEnvironmentModel(cfg.SampleRate, cfg.Room.SoundSpeedMPS, cfg.Room.DimensionsM)
	}

	for _, sc := range cfg.Sources {
		s := newMovingSource(sc)
		e.sources = append(e.sources, s)
		if e.ambisonicModel != nil {
			if err := e.ambisonicModel.ConnectSource(sc.ID); err != nil {
				return nil, err
			}
			continue
		}
		if e.env != nil {
			if err := e.env.ConnectSource(sc.ID, e.hrtfModel); err != nil {
				return nil, err
			}
			var bands [sdn.NumFreqBands]float64
			for i := range bands {
				bands[i] = cfg.Room.WallAbsorption
			}
			for i := 0; i < 6; i++ {
				if err := e.env.SetWallAbsorption(i, bands); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := e.hrtfModel.ConnectSource(sc.ID); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Dispatcher exposes the command router so brtdemo's CLI/config layer can
// issue /listener/... commands against the running session.
func (e *Engine) Dispatcher() *ports.Dispatcher { return e.dispatcher }

// Diagnostics exposes the ring the control loop drains between blocks.
func (e *Engine) Diagnostics() *diag.Ring { return e.ring }

// RenderBlock advances every source by one block, renders each through the
// active listener model, and sums the result into one stereo pair.
func (e *Engine) RenderBlock(listenerTransform geom.Transform) (left, right []float64) {
	left = make([]float64, e.params.BlockSize)
	right = make([]float64, e.params.BlockSize)

	if e.ambisonicModel != nil {
		inputs := make(map[string]listener.SourceInput, len(e.sources))
		for _, s := range e.sources {
			tone, transform := s.advance(e.params.BlockSize, e.params.SampleRate)
			inputs[s.cfg.ID] = listener.SourceInput{Samples: tone, Transform: transform}
		}
		l, r, err := e.ambisonicModel.Process(inputs, listenerTransform)
		e.ring.Push(asCondition(err))
		if err == nil {
			left, right = l, r
		}
		return left, right
	}

	for _, s := range e.sources {
		tone, transform := s.advance(e.params.BlockSize, e.params.SampleRate)
		var l, r []float64
		var err error
		if e.env != nil {
			l, r, err = e.env.Process(s.cfg.ID, tone, transform, listenerTransform, e.hrtfModel)
		} else {
			l, r, err = e.hrtfModel.Process(s.cfg.ID, tone, transform, listenerTransform)
		}
		e.ring.Push(asCondition(err))
		if err != nil {
			continue // a mis-sized/nil pair on error contributes silence, not a panic
		}
		for i := range left {
			left[i] += l[i]
			right[i] += r[i]
		}
	}
	return left, right
}

func asCondition(err error) *brt.Condition {
	if err == nil {
		return nil
	}
	c, ok := err.(*brt.Condition)
	if !ok {
		return brt.NewCondition(brt.KindInvalidParam, "brtdemo.Engine.RenderBlock", err)
	}
	return c
}
