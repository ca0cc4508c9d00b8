package geom

// volumeCenter is the look-at target: the middle of the unit cube the
// volume occupies.
var volumeCenter = Vector3{0.5, 0.5, 0.5}

// Near and far clip distances of the perspective projection.
const (
	cameraNear = 0.1
	cameraFar  = 50.0
)

// Camera describes a perspective camera aimed at the volume center.
type Camera struct {
	// Position is the eye point.
	Position Vector3

	// FocalLength is the distance from the eye to the projection plane;
	// the plane spans [-1, 1] horizontally.
	FocalLength float64

	// Aspect is width over height of the output image.
	Aspect float64
}

// LookAt builds a right-handed view matrix from eye toward center with the
// given up vector.
func LookAt(eye, center, up Vector3) Matrix4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Matrix4{
		{s.X, s.Y, s.Z, -s.Dot(eye)},
		{u.X, u.Y, u.Z, -u.Dot(eye)},
		{-f.X, -f.Y, -f.Z, f.Dot(eye)},
		{0, 0, 0, 1},
	}
}

// Frustum builds a right-handed perspective projection from clip-plane
// extents at the near plane.
func Frustum(left, right, bottom, top, near, far float64) Matrix4 {
	return Matrix4{
		{2 * near / (right - left), 0, (right + left) / (right - left), 0},
		{0, 2 * near / (top - bottom), (top + bottom) / (top - bottom), 0},
		{0, 0, -(far + near) / (far - near), -2 * far * near / (far - near)},
		{0, 0, -1, 0},
	}
}

// ViewMatrix returns the camera's view matrix, looking at the volume
// center with a +Y up vector.
func (c Camera) ViewMatrix() Matrix4 {
	return LookAt(c.Position, volumeCenter, Vector3{0, 1, 0})
}

// ProjectionMatrix returns the camera's perspective projection. The
// horizontal half-extent at the near plane is near/FocalLength so that the
// projection plane sits at distance FocalLength; the vertical extent
// follows the aspect ratio.
func (c Camera) ProjectionMatrix() Matrix4 {
	w := cameraNear / c.FocalLength
	h := w / c.Aspect
	return Frustum(-w, w, -h, h, cameraNear, cameraFar)
}

// InverseMVP returns the inverse of projection * view (the model matrix is
// the identity), the matrix that unprojects NDC coordinates to world space.
func (c Camera) InverseMVP() Matrix4 {
	return c.ProjectionMatrix().Multiply(c.ViewMatrix()).Inverse()
}

// Unproject maps an NDC point with depth ndcZ through an inverse MVP to a
// world-space point, dividing by the homogeneous coordinate.
func Unproject(invMVP Matrix4, ndcX, ndcY, ndcZ float64) Vector3 {
	return invMVP.MulVec4(Vector4{ndcX, ndcY, ndcZ, 1}).PerspectiveDivide()
}
