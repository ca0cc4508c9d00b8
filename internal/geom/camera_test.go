package geom

import (
	"math"
	"testing"
)

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	eye := Vec3(-1, -1, 1)
	view := LookAt(eye, Vec3(0.5, 0.5, 0.5), Vec3(0, 1, 0))
	got := view.MulVec4(Vector4{eye.X, eye.Y, eye.Z, 1})
	if math.Abs(got.X) > epsilon || math.Abs(got.Y) > epsilon || math.Abs(got.Z) > epsilon {
		t.Errorf("view * eye = %v, want origin", got)
	}
}

func TestLookAtCenterOnNegativeZ(t *testing.T) {
	eye := Vec3(-1, -1, 1)
	center := Vec3(0.5, 0.5, 0.5)
	view := LookAt(eye, center, Vec3(0, 1, 0))
	got := view.MulVec4(Vector4{center.X, center.Y, center.Z, 1})
	if math.Abs(got.X) > epsilon || math.Abs(got.Y) > epsilon {
		t.Errorf("view * center = %v, want on the z axis", got)
	}
	if got.Z >= 0 {
		t.Errorf("view * center z = %v, want negative (right-handed forward)", got.Z)
	}
	dist := center.Sub(eye).Length()
	if math.Abs(-got.Z-dist) > epsilon {
		t.Errorf("view * center depth = %v, want %v", -got.Z, dist)
	}
}

func TestUnprojectCentralRay(t *testing.T) {
	cam := Camera{Position: Vec3(-1, -1, 1), FocalLength: 1.953125, Aspect: 1}
	inv := cam.InverseMVP()

	near := Unproject(inv, 0, 0, -1)
	far := Unproject(inv, 0, 0, 1)
	dir := far.Sub(near).Normalize()
	want := Vec3(0.5, 0.5, 0.5).Sub(cam.Position).Normalize()

	if dir.Sub(want).Length() > 1e-6 {
		t.Errorf("central ray direction = %v, want %v", dir, want)
	}
}

func TestUnprojectDirectionsNormalized(t *testing.T) {
	cam := Camera{Position: Vec3(-1, -1, 1), FocalLength: 1.953125, Aspect: 2}
	inv := cam.InverseMVP()

	for _, ndc := range [][2]float64{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}, {0, 0}, {0.3, -0.7}} {
		near := Unproject(inv, ndc[0], ndc[1], -1)
		far := Unproject(inv, ndc[0], ndc[1], 1)
		dir := far.Sub(near).Normalize()
		if math.Abs(dir.Length()-1) > 1e-5 {
			t.Errorf("ndc %v: direction norm = %v, want 1", ndc, dir.Length())
		}
		if far.Sub(near).Length() < 1 {
			t.Errorf("ndc %v: near and far unexpectedly close", ndc)
		}
	}
}

func TestUnprojectNearPlaneDistance(t *testing.T) {
	cam := Camera{Position: Vec3(0, 0, 3), FocalLength: 2, Aspect: 1}
	inv := cam.InverseMVP()

	near := Unproject(inv, 0, 0, -1)
	if got := near.Sub(cam.Position).Length(); math.Abs(got-0.1) > 1e-6 {
		t.Errorf("near point distance = %v, want 0.1", got)
	}
}

func TestAspectScalesVertically(t *testing.T) {
	wide := Camera{Position: Vec3(0, 0, 3), FocalLength: 2, Aspect: 2}
	inv := wide.InverseMVP()

	right := Unproject(inv, 1, 0, -1).Sub(Unproject(inv, 0, 0, -1)).Length()
	up := Unproject(inv, 0, 1, -1).Sub(Unproject(inv, 0, 0, -1)).Length()
	if math.Abs(right/up-2) > 1e-6 {
		t.Errorf("horizontal/vertical extent ratio = %v, want aspect 2", right/up)
	}
}
