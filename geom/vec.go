package geom

// Vec is a position, extent or momentum in detector coordinates.
type Vec [3]float64

// Add returns v + u.
func (v Vec) Add(u Vec) Vec {
	return Vec{v[0] + u[0], v[1] + u[1], v[2] + u[2]}
}

// Sub returns v - u.
func (v Vec) Sub(u Vec) Vec {
	return Vec{v[0] - u[0], v[1] - u[1], v[2] - u[2]}
}

// Scale returns k * v.
func (v Vec) Scale(k float64) Vec {
	return Vec{k * v[0], k * v[1], k * v[2]}
}

// EpsEq returns true if every component of v is within eps of u.
func (v Vec) EpsEq(u Vec, eps float64) bool {
	for i := 0; i < 3; i++ {
		d := v[i] - u[i]
		if d > eps || d < -eps {
			return false
		}
	}
	return true
}
