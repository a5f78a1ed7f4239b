package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/dynamo"
)

func newTwoBody(t *testing.T, method dynamo.Method, dt float64, pos, vel r3.Vec) (*System, *Body, *Body) {
	t.Helper()
	sys, err := NewSystem(method, dt)
	require.NoError(t, err)

	sun := NewBody(1000, r3.Vec{}, r3.Vec{}, dynamo.Central)
	planet := NewBody(1, pos, vel, dynamo.Orbiting)
	_, err = sys.Add(sun)
	require.NoError(t, err)
	_, err = sys.Add(planet)
	require.NoError(t, err)
	return sys, sun, planet
}

// kickFromOrigin is the velocity change of a body at p pulled by mass M at the origin.
func kickFromOrigin(p r3.Vec, mass, dt float64) r3.Vec {
	rx, ry, rz := -p.X, -p.Y, -p.Z
	r := math.Sqrt(rx*rx + ry*ry + rz*rz)
	a := mass / (r * r)
	return r3.Vec{X: a * rx / r * dt, Y: a * ry / r * dt, Z: a * rz / r * dt}
}

func assertVecInDelta(t *testing.T, want, got r3.Vec, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

func TestNewSystemValidation(t *testing.T) {
	tests := []struct {
		name   string
		method dynamo.Method
		dt     float64
		want   error
	}{
		{"zero dt", dynamo.Euler, 0, dynamo.ErrInvalidTimeStep},
		{"negative dt", dynamo.Leapfrog, -1, dynamo.ErrInvalidTimeStep},
		{"nan dt", dynamo.Euler, math.NaN(), dynamo.ErrInvalidTimeStep},
		{"inf dt", dynamo.Euler, math.Inf(1), dynamo.ErrInvalidTimeStep},
		{"unknown method", dynamo.Method(42), 1, dynamo.ErrUnknownMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, err := NewSystem(tt.method, tt.dt)
			assert.Nil(t, sys)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEulerStepTwoBody(t *testing.T) {
	pos := r3.Vec{X: 100}
	vel := r3.Vec{Y: 3}
	h := 2.0
	sys, sun, planet := newTwoBody(t, dynamo.Euler, h, pos, vel)

	_, err := sys.StepCentralOnly()
	require.NoError(t, err)

	wantPos := r3.Vec{X: 100, Y: 6}
	assertVecInDelta(t, wantPos, planet.Position, 1e-12)
	wantVel := r3.Add(vel, kickFromOrigin(wantPos, 1000, h))
	assertVecInDelta(t, wantVel, planet.Velocity, 1e-12)

	assert.Equal(t, r3.Vec{}, sun.Position)
	assert.Equal(t, r3.Vec{}, sun.Velocity)
}

func TestLeapfrogStepTwoBody(t *testing.T) {
	pos := r3.Vec{X: 100}
	vel := r3.Vec{Y: 3}
	h := 1.0
	sys, _, planet := newTwoBody(t, dynamo.Leapfrog, h, pos, vel)

	_, err := sys.StepCentralOnly()
	require.NoError(t, err)

	half := r3.Vec{X: 100, Y: 1.5}
	wantVel := r3.Add(vel, kickFromOrigin(half, 1000, h))
	wantPos := r3.Add(half, r3.Scale(h/2, wantVel))

	assertVecInDelta(t, wantVel, planet.Velocity, 1e-12)
	assertVecInDelta(t, wantPos, planet.Position, 1e-12)
}

func TestFullStepKicksCentralVelocityOnly(t *testing.T) {
	sys, sun, planet := newTwoBody(t, dynamo.Euler, 1, r3.Vec{X: 100}, r3.Vec{Y: 3})

	_, err := sys.Step()
	require.NoError(t, err)

	assert.Equal(t, r3.Vec{}, sun.Position, "central body must not translate")
	r := r3.Norm(planet.Position)
	want := r3.Scale(planet.Mass/(r*r*r), planet.Position)
	assertVecInDelta(t, want, sun.Velocity, 1e-15)
	assert.False(t, sun.Diagnostics.Valid, "central body gets no diagnostics")
	assert.True(t, planet.Diagnostics.Valid)
}

func TestCentralOnlyTrajectoriesAreIndependent(t *testing.T) {
	starts := []struct{ pos, vel r3.Vec }{
		{r3.Vec{X: 100}, r3.Vec{Y: 3.16}},
		{r3.Vec{Y: 150}, r3.Vec{X: -2.5, Z: 0.3}},
		{r3.Vec{X: -80, Z: 20}, r3.Vec{Y: -3.4}},
	}

	for _, method := range []dynamo.Method{dynamo.Euler, dynamo.Leapfrog} {
		t.Run(method.String(), func(t *testing.T) {
			combined, err := NewSystem(method, 1)
			require.NoError(t, err)
			_, err = combined.Add(NewBody(1000, r3.Vec{}, r3.Vec{}, dynamo.Central))
			require.NoError(t, err)

			solos := make([]*System, len(starts))
			for i, s := range starts {
				_, err = combined.Add(NewBody(5, s.pos, s.vel, dynamo.Orbiting))
				require.NoError(t, err)

				solo, _, _ := newTwoBody(t, method, 1, s.pos, s.vel)
				solos[i] = solo
			}

			for k := 0; k < 50; k++ {
				_, err := combined.StepCentralOnly()
				require.NoError(t, err)
				for _, solo := range solos {
					_, err := solo.StepCentralOnly()
					require.NoError(t, err)
				}
			}

			for i, solo := range solos {
				got := combined.Bodies()[i+1]
				want := solo.Bodies()[1]
				assert.Equal(t, want.Position, got.Position, "body %d position", i+1)
				assert.Equal(t, want.Velocity, got.Velocity, "body %d velocity", i+1)
			}
		})
	}
}

func TestFullStepMutualPullScalesWithMass(t *testing.T) {
	sys, err := NewSystem(dynamo.Euler, 1)
	require.NoError(t, err)
	a := NewBody(2, r3.Vec{}, r3.Vec{}, dynamo.Orbiting)
	b := NewBody(5, r3.Vec{X: 10}, r3.Vec{}, dynamo.Orbiting)
	_, err = sys.Add(a)
	require.NoError(t, err)
	_, err = sys.Add(b)
	require.NoError(t, err)

	_, err = sys.Step()
	require.NoError(t, err)

	dvA := r3.Norm(a.Velocity)
	dvB := r3.Norm(b.Velocity)
	assert.InDelta(t, b.Mass/100, dvA, 1e-15)
	assert.InDelta(t, a.Mass/100, dvB, 1e-15)
	assert.InDelta(t, b.Mass/a.Mass, dvA/dvB, 1e-12)

	momentum := r3.Add(r3.Scale(a.Mass, a.Velocity), r3.Scale(b.Mass, b.Velocity))
	assert.InDelta(t, 0, r3.Norm(momentum), 1e-15)
}

func TestCircularOrbitStaysBounded(t *testing.T) {
	sys, _, planet := newTwoBody(t, dynamo.Leapfrog, 1, r3.Vec{X: 100}, r3.Vec{Y: 3.16})

	minR, maxR := math.Inf(1), 0.0
	for i := 0; i < 2000; i++ {
		_, err := sys.StepCentralOnly()
		require.NoError(t, err)
		r := r3.Norm(planet.Position)
		minR = math.Min(minR, r)
		maxR = math.Max(maxR, r)
	}

	assert.Greater(t, minR, 95.0)
	assert.Less(t, maxR, 105.0)
	assert.True(t, sys.Valid())
	assert.Equal(t, 2000, sys.Steps())
	assert.InDelta(t, 2000.0, sys.Time(), 1e-9)
}

func TestCoincidentBodiesProduceNonFiniteState(t *testing.T) {
	for _, method := range []dynamo.Method{dynamo.Euler, dynamo.Leapfrog} {
		t.Run(method.String(), func(t *testing.T) {
			sys, _, planet := newTwoBody(t, method, 1, r3.Vec{}, r3.Vec{})

			var snap dynamo.Snapshot
			require.NotPanics(t, func() {
				var err error
				snap, err = sys.StepCentralOnly()
				require.NoError(t, err)
			})

			assert.True(t, math.IsNaN(planet.Velocity.X) || math.IsInf(planet.Velocity.X, 0))
			assert.False(t, sys.Valid())
			assert.False(t, snap.Finite())
		})
	}
}

func TestStepCentralOnlyWithoutCentral(t *testing.T) {
	sys, err := NewSystem(dynamo.Euler, 1)
	require.NoError(t, err)
	b := NewBody(1, r3.Vec{X: 1}, r3.Vec{Y: 1}, dynamo.Orbiting)
	_, err = sys.Add(b)
	require.NoError(t, err)

	_, err = sys.StepCentralOnly()
	assert.ErrorIs(t, err, dynamo.ErrNoCentralBody)
	assert.Equal(t, r3.Vec{X: 1}, b.Position)
	assert.Equal(t, 0, sys.Steps())
}

func TestStepCentralOnlyUsesFirstCentral(t *testing.T) {
	sys, err := NewSystem(dynamo.Euler, 1)
	require.NoError(t, err)
	first := NewBody(1000, r3.Vec{}, r3.Vec{}, dynamo.Central)
	second := NewBody(10, r3.Vec{X: 50}, r3.Vec{}, dynamo.Central)
	planet := NewBody(1, r3.Vec{X: 100}, r3.Vec{}, dynamo.Orbiting)
	for _, b := range []*Body{first, second, planet} {
		_, err := sys.Add(b)
		require.NoError(t, err)
	}

	central, ok := sys.Central()
	require.True(t, ok)
	assert.Same(t, first, central)

	_, err = sys.StepCentralOnly()
	require.NoError(t, err)

	assertVecInDelta(t, kickFromOrigin(r3.Vec{X: 100}, 1000, 1), planet.Velocity, 1e-15)
	assertVecInDelta(t, kickFromOrigin(r3.Vec{X: 50}, 1000, 1), second.Velocity, 1e-15)
	assert.Equal(t, r3.Vec{X: 50}, second.Position)
	assert.Equal(t, r3.Vec{}, first.Velocity)
}

func TestAddOwnership(t *testing.T) {
	sysA, err := NewSystem(dynamo.Euler, 1)
	require.NoError(t, err)
	sysB, err := NewSystem(dynamo.Euler, 1)
	require.NoError(t, err)

	sun := NewBody(1000, r3.Vec{}, r3.Vec{}, dynamo.Central)
	id, err := sysA.Add(sun)
	require.NoError(t, err)
	assert.Equal(t, dynamo.BodyID(0), id)
	assert.Same(t, sysA, sun.System())

	_, err = sysB.Add(sun)
	assert.ErrorIs(t, err, dynamo.ErrBodyOwned)

	planet := NewBody(1, r3.Vec{X: 100}, r3.Vec{Y: 3}, dynamo.Orbiting)
	id, err = sysA.Add(planet)
	require.NoError(t, err)
	assert.Equal(t, dynamo.BodyID(1), id)

	got, ok := sysA.Body(1)
	require.True(t, ok)
	assert.Same(t, planet, got)
	_, ok = sysA.Body(7)
	assert.False(t, ok)

	_, err = sysA.Step()
	require.NoError(t, err)
	_, err = sysA.Add(NewBody(1, r3.Vec{Y: 200}, r3.Vec{}, dynamo.Orbiting))
	assert.ErrorIs(t, err, dynamo.ErrSystemStarted)
}

func TestObserversReceiveSnapshots(t *testing.T) {
	sys, _, planet := newTwoBody(t, dynamo.Leapfrog, 1, r3.Vec{X: 100}, r3.Vec{Y: 3})

	var seen []dynamo.Snapshot
	sys.AddObserver(dynamo.ObserverFunc(func(s dynamo.Snapshot) {
		seen = append(seen, s)
	}))

	for i := 0; i < 3; i++ {
		_, err := sys.StepWith(dynamo.CentralOnly)
		require.NoError(t, err)
	}

	require.Len(t, seen, 3)
	last := seen[2]
	assert.Equal(t, 3, last.Step)
	assert.Equal(t, dynamo.CentralOnly, last.Topology)
	got, ok := last.Body(planet.ID)
	require.True(t, ok)
	assert.Equal(t, planet.Position, got.Position)

	// snapshots are copies
	planet.Position = r3.Vec{}
	assert.NotEqual(t, planet.Position, got.Position)
}

func TestStepWithUnknownTopology(t *testing.T) {
	sys, _, _ := newTwoBody(t, dynamo.Euler, 1, r3.Vec{X: 100}, r3.Vec{Y: 3})
	_, err := sys.StepWith(dynamo.Topology(9))
	assert.ErrorIs(t, err, dynamo.ErrUnknownTopology)
}
