package cloud

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is the sensor acquisition origin and orientation of a cloud.
type Pose struct {
	Origin      [3]float64
	Orientation quat.Number // unit quaternion; the zero value is treated as identity
}

// IdentityPose returns the pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

func (p Pose) orientation() quat.Number {
	if p.Orientation == (quat.Number{}) {
		return quat.Number{Real: 1}
	}

	return p.Orientation
}

// IsIdentity reports whether the pose has a zero origin and no rotation,
// within 1e-9 on every component.
func (p Pose) IsIdentity() bool {
	const eps = 1e-9
	for _, v := range p.Origin {
		if math.Abs(v) > eps {
			return false
		}
	}

	q := p.orientation()
	// q and -q encode the same rotation.
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}

	return math.Abs(q.Real-1) <= eps && math.Abs(q.Imag) <= eps && math.Abs(q.Jmag) <= eps && math.Abs(q.Kmag) <= eps
}

// Axes returns the rotation matrix as three rows: the sensor x, y and z axes.
func (p Pose) Axes() [3][3]float64 {
	q := p.orientation()
	if n := quat.Abs(q); n != 0 {
		q = quat.Scale(1/n, q)
	}
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}

// RotationMatrix returns the orientation as a 3x3 matrix.
func (p Pose) RotationMatrix() *mat.Dense {
	axes := p.Axes()
	data := make([]float64, 0, 9)
	for _, row := range axes {
		data = append(data, row[:]...)
	}

	return mat.NewDense(3, 3, data)
}

// Transform returns the pose as a row-major 4x4 homogeneous transform.
func (p Pose) Transform() [16]float64 {
	r := p.Axes()

	return [16]float64{
		r[0][0], r[0][1], r[0][2], p.Origin[0],
		r[1][0], r[1][1], r[1][2], p.Origin[1],
		r[2][0], r[2][1], r[2][2], p.Origin[2],
		0, 0, 0, 1,
	}
}

// Apply rotates the point by the orientation and translates it by the origin.
func (p Pose) Apply(pt [3]float64) [3]float64 {
	q := p.orientation()
	if n := quat.Abs(q); n != 0 {
		q = quat.Scale(1/n, q)
	}

	v := quat.Number{Imag: pt[0], Jmag: pt[1], Kmag: pt[2]}
	r := quat.Mul(quat.Mul(q, v), quat.Conj(q))

	return [3]float64{r.Imag + p.Origin[0], r.Jmag + p.Origin[1], r.Kmag + p.Origin[2]}
}

// PoseFromAxes builds a pose from an origin and a rotation matrix given as
// rows. An all-zero matrix, as left by a camera element without axis
// properties, yields no rotation.
func PoseFromAxes(origin [3]float64, axes [3][3]float64) Pose {
	if axes == ([3][3]float64{}) {
		return Pose{Origin: origin, Orientation: quat.Number{Real: 1}}
	}

	m := axes
	var q quat.Number
	switch tr := m[0][0] + m[1][1] + m[2][2]; {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{
			Real: s / 4,
			Imag: (m[2][1] - m[1][2]) / s,
			Jmag: (m[0][2] - m[2][0]) / s,
			Kmag: (m[1][0] - m[0][1]) / s,
		}
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := math.Sqrt(1+m[0][0]-m[1][1]-m[2][2]) * 2
		q = quat.Number{
			Real: (m[2][1] - m[1][2]) / s,
			Imag: s / 4,
			Jmag: (m[0][1] + m[1][0]) / s,
			Kmag: (m[0][2] + m[2][0]) / s,
		}
	case m[1][1] > m[2][2]:
		s := math.Sqrt(1+m[1][1]-m[0][0]-m[2][2]) * 2
		q = quat.Number{
			Real: (m[0][2] - m[2][0]) / s,
			Imag: (m[0][1] + m[1][0]) / s,
			Jmag: s / 4,
			Kmag: (m[1][2] + m[2][1]) / s,
		}
	default:
		s := math.Sqrt(1+m[2][2]-m[0][0]-m[1][1]) * 2
		q = quat.Number{
			Real: (m[1][0] - m[0][1]) / s,
			Imag: (m[0][2] + m[2][0]) / s,
			Jmag: (m[1][2] + m[2][1]) / s,
			Kmag: s / 4,
		}
	}

	if n := quat.Abs(q); n != 0 && !math.IsNaN(n) {
		q = quat.Scale(1/n, q)
	} else {
		q = quat.Number{Real: 1}
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}

	return Pose{Origin: origin, Orientation: q}
}
