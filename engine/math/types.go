package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Color is a linear RGBA colour, each channel in [0,1].
type Color struct {
	R, G, B, A float32
}

/**
 * @brief Placement of an object in the world: position, euler
 * angles in degrees and scale.
 */
type Transform struct {
	Position    Vec3
	EulerAngles Vec3
	Scale       Vec3
}
