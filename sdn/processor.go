package sdn

import (
	"math"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
)

// NumOutputs is the number of virtual mono streams the processor emits
// per block: six wall-reflection streams plus one direct-path stream,
// per spec.md §4.10.
const NumOutputs = numWalls + 1

// Output bundles one virtual stream with the transform downstream
// binaural rendering should use for it.
type Output struct {
	Samples  []float64
	Position geom.Vector3
}

// Processor is the per-source SDN environment processor of spec.md §4.10:
// six wall ScatteringNodes, the source/listener waveguides feeding and
// draining them, the 30 wall-to-wall waveguides, and the direct-path
// waveguide, advanced one sample at a time.
//
// Grounded on original_source/include/EnvironmentModels/SDNEnvironment/
// SDNEnvironment.hpp's Process/ProcessSample/ProcessNodes/TimeStep; the
// ScatteringNode class itself was not present in the retrieved source, so
// the per-wall scatter step follows spec.md §4.10's explicit isotropic
// scattering-coefficient formula `2/(N-1) - delta_ij` instead.
type Processor struct {
	sampleRate float64
	soundSpeed float64
	dimensions geom.Vector3 // room size in metres, box corner at origin
	walls      [numWalls]*Wall

	sourceToWall     [numWalls]*delayLine
	wallToListener   [numWalls]*delayLine
	sourceToListener *delayLine
	wallToWall       [numWalls][numWalls]*delayLine // [i][j], i != j

	muteDirectPath bool
	muteReverbPath bool

	lastSource, lastListener geom.Vector3
	hasState                 bool
}

// NewProcessor builds a processor for a room of the given dimensions
// (metres, box corner at the origin, opposite corner at dimensions), all
// walls fully reflective until their absorption is set through Wall(i).
func NewProcessor(sampleRate int, soundSpeedMPS float64, dimensions geom.Vector3) *Processor {
	p := &Processor{
		sampleRate: float64(sampleRate),
		soundSpeed: soundSpeedMPS,
		dimensions: dimensions,
	}
	for i := range p.walls {
		p.walls[i] = NewWall()
	}

	maxDelay := maxDelaySamples(dimensions, sampleRate, soundSpeedMPS)
	for i := 0; i < numWalls; i++ {
		p.sourceToWall[i] = newDelayLine(p.sampleRate, maxDelay)
		p.wallToListener[i] = newDelayLine(p.sampleRate, maxDelay)
		for j := 0; j < numWalls; j++ {
			if i != j {
				p.wallToWall[i][j] = newDelayLine(p.sampleRate, maxDelay)
			}
		}
	}
	p.sourceToListener = newDelayLine(p.sampleRate, maxDelay)
	return p
}

func maxDelaySamples(dimensions geom.Vector3, sampleRate int, soundSpeedMPS float64) int {
	diag := math.Sqrt(dimensions.X*dimensions.X + dimensions.Y*dimensions.Y + dimensions.Z*dimensions.Z)
	n := int(diag/soundSpeedMPS*float64(sampleRate)) + 8
	if n < 8 {
		n = 8
	}
	return n
}

// Wall returns the index-i wall ([X0, X1, Y0, Y1, Z0, Z1]) so its
// absorption can be configured.
func (p *Processor) Wall(i int) (*Wall, error) {
	if i < 0 || i >= numWalls {
		return nil, brt.NewCondition(brt.KindOutOfRange, "sdn.Processor.Wall", nil)
	}
	return p.walls[i], nil
}

// MuteDirectPath mutes/unmutes the direct-path (source-to-listener)
// output stream, spec.md §4.10's "Direct path and/or reverb path can be
// independently muted".
func (p *Processor) MuteDirectPath(mute bool) { p.muteDirectPath = mute }

// MuteReverbPath mutes/unmutes the six wall-reflection output streams.
func (p *Processor) MuteReverbPath(mute bool) { p.muteReverbPath = mute }

// IsInBounds reports whether position lies strictly inside the room box,
// per spec.md §4.10's "Queries outside the room silence the output."
func (p *Processor) IsInBounds(position geom.Vector3) bool {
	return position.X > 0 && position.X < p.dimensions.X &&
		position.Y > 0 && position.Y < p.dimensions.Y &&
		position.Z > 0 && position.Z < p.dimensions.Z
}

// Process runs one block through the network, returning NumOutputs
// virtual streams with their transforms. sourcePosition and
// listenerPosition are in the room's local coordinate frame (box corner
// at the origin). Out-of-bounds positions silence every output, per
// spec.md §4.10.
func (p *Processor) Process(input []float64, sourcePosition, listenerPosition geom.Vector3) ([]Output, error) {
	outs := make([]Output, NumOutputs)
	for i := range outs {
		outs[i] = Output{Samples: make([]float64, len(input))}
	}

	if !p.IsInBounds(sourcePosition) || !p.IsInBounds(listenerPosition) {
		p.hasState = false
		return outs, nil
	}

	reflections, moving := p.updateTopology(sourcePosition, listenerPosition)
	for i := 0; i < numWalls; i++ {
		outs[i].Position = reflections[i]
	}
	outs[numWalls].Position = sourcePosition

	for _, w := range p.walls {
		w.RefreshIfDirty()
	}

	for n := range input {
		if moving {
			p.interpolateAll()
		}
		p.injectSample(input[n])
		p.scatterNodes()
		for i := 0; i < numWalls; i++ {
			v := p.wallToListener[i].currentSample()
			if !p.muteReverbPath {
				outs[i].Samples[n] = v
			}
		}
		if !p.muteDirectPath {
			outs[numWalls].Samples[n] = p.sourceToListener.currentSample()
		}
		p.advance()
	}
	return outs, nil
}

// updateTopology recomputes every waveguide's target distance from the
// current source/listener/wall positions, per SDNEnvironment::Prepare and
// ::UpdatePositions.
func (p *Processor) updateTopology(sourcePosition, listenerPosition geom.Vector3) (reflections [numWalls]geom.Vector3, moving bool) {
	wallPlanePosition := [numWalls]float64{0, p.dimensions.X, 0, p.dimensions.Y, 0, p.dimensions.Z}

	for i := 0; i < numWalls; i++ {
		refl := reflectionPoint(sourcePosition, listenerPosition, wallAxisOf[i], wallPlanePosition[i])
		reflections[i] = refl

		p.sourceToWall[i].setDistance(pointDistance(sourcePosition, refl), p.soundSpeed)
		p.wallToListener[i].setDistance(pointDistance(refl, listenerPosition), p.soundSpeed)
		p.sourceToWall[i].setAttenuation(1 / math.Max(1, pointDistance(sourcePosition, refl)))

		sToWallDist := math.Max(1, pointDistance(sourcePosition, refl))
		nToListenerDist := math.Max(1, pointDistance(refl, listenerPosition))
		p.wallToListener[i].setAttenuation(1 / (1 + nToListenerDist/sToWallDist))
	}
	for i := 0; i < numWalls; i++ {
		for j := 0; j < numWalls; j++ {
			if i == j {
				continue
			}
			d := pointDistance(reflections[i], reflections[j])
			p.wallToWall[i][j].setDistance(d, p.soundSpeed)
			p.wallToWall[i][j].setAttenuation(1)
		}
	}
	srcListenerDist := pointDistance(sourcePosition, listenerPosition)
	p.sourceToListener.setDistance(srcListenerDist, p.soundSpeed)
	p.sourceToListener.setAttenuation(1 / math.Max(1, srcListenerDist))

	moving = p.hasState && (sourcePosition != p.lastSource || listenerPosition != p.lastListener)
	p.lastSource, p.lastListener, p.hasState = sourcePosition, listenerPosition, true
	return reflections, moving
}

func (p *Processor) interpolateAll() {
	p.sourceToListener.interpolateDistance()
	for i := 0; i < numWalls; i++ {
		p.sourceToWall[i].interpolateDistance()
		p.wallToListener[i].interpolateDistance()
		for j := 0; j < numWalls; j++ {
			if i != j {
				p.wallToWall[i][j].interpolateDistance()
			}
		}
	}
}

// injectSample pushes the source sample into the direct-path line and
// every source-to-wall line, per ProcessSample's injection step.
func (p *Processor) injectSample(x float64) {
	p.sourceToListener.pushNextSample(x)
	for i := 0; i < numWalls; i++ {
		p.sourceToWall[i].pushNextSample(x)
	}
}

// scatterNodes reads each wall's incoming samples, filters through the
// wall's minimum-phase cascade, and redistributes the filtered sample to
// the wall-to-listener line and every outgoing wall-to-wall line with the
// isotropic scattering coefficient 2/(N-1) (self-term excluded per spec.md
// §4.10's "2/(N-1) - delta_ij" — since i != j for every out-edge, delta_ij
// is always 0 here and the coefficient is the same constant on every edge).
func (p *Processor) scatterNodes() {
	const scatterCoeff = 2.0 / float64(numWalls-1)

	incoming := make([]float64, numWalls)
	for i := 0; i < numWalls; i++ {
		sum := p.sourceToWall[i].currentSample()
		for j := 0; j < numWalls; j++ {
			if j != i {
				sum += p.wallToWall[j][i].currentSample()
			}
		}
		incoming[i] = sum
	}

	for i := 0; i < numWalls; i++ {
		filtered := p.walls[i].Filter(incoming[i])
		p.wallToListener[i].pushNextSample(filtered)
		for j := 0; j < numWalls; j++ {
			if j != i {
				p.wallToWall[i][j].pushNextSample(scatterCoeff * filtered)
			}
		}
	}
}

func (p *Processor) advance() {
	for i := 0; i < numWalls; i++ {
		p.sourceToWall[i].stepForward()
		p.wallToListener[i].stepForward()
		for j := 0; j < numWalls; j++ {
			if i != j {
				p.wallToWall[i][j].stepForward()
			}
		}
	}
	p.sourceToListener.stepForward()
}

// reflectionPoint computes the specular-reflection point on the
// axis-aligned plane at wallPosition along reflAxis between a (source)
// and b (listener), per SDNEnvironment::ReflectionPoint: mirror a across
// the plane, then intersect the segment from the mirror image to b with
// the plane.
func reflectionPoint(a, b geom.Vector3, axis wallAxis, wallPosition float64) geom.Vector3 {
	mirror := a
	switch axis {
	case wallX0, wallX1:
		mirror.X = 2*wallPosition - a.X
	case wallY0, wallY1:
		mirror.Y = 2*wallPosition - a.Y
	case wallZ0, wallZ1:
		mirror.Z = 2*wallPosition - a.Z
	}
	dir := b.Sub(mirror)

	var t float64
	switch axis {
	case wallX0, wallX1:
		if dir.X != 0 {
			t = (wallPosition - mirror.X) / dir.X
		}
		return geom.Vector3{X: wallPosition, Y: mirror.Y + dir.Y*t, Z: mirror.Z + dir.Z*t}
	case wallY0, wallY1:
		if dir.Y != 0 {
			t = (wallPosition - mirror.Y) / dir.Y
		}
		return geom.Vector3{X: mirror.X + dir.X*t, Y: wallPosition, Z: mirror.Z + dir.Z*t}
	default: // wallZ0, wallZ1
		if dir.Z != 0 {
			t = (wallPosition - mirror.Z) / dir.Z
		}
		return geom.Vector3{X: mirror.X + dir.X*t, Y: mirror.Y + dir.Y*t, Z: wallPosition}
	}
}

func pointDistance(a, b geom.Vector3) float64 {
	d := a.Sub(b).Distance()
	if d < 1 {
		return 1
	}
	return d
}
