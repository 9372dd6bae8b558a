package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	center := Point{Lat: 28.6139, Lng: 77.2090}

	if d := DistanceMeters(center, center); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}

	// 纬度 0.001° 约等于 111 米
	north := Point{Lat: center.Lat + 0.001, Lng: center.Lng}
	d := DistanceMeters(center, north)
	if d < 105 || d > 120 {
		t.Errorf("distance for 0.001 deg latitude = %f, want ~111m", d)
	}

	// 对称性
	if d2 := DistanceMeters(north, center); math.Abs(d-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d, d2)
	}
}

func TestCircleContains(t *testing.T) {
	center := Point{Lat: 28.6139, Lng: 77.2090}

	if !CircleContains(center, 100, center) {
		t.Error("circle must contain its own center")
	}

	near := Point{Lat: center.Lat + 0.0005, Lng: center.Lng} // ~55m
	if !CircleContains(center, 100, near) {
		t.Error("point at ~55m should be inside 100m fence")
	}

	far := Point{Lat: center.Lat + 0.0015, Lng: center.Lng} // ~166m
	if CircleContains(center, 100, far) {
		t.Error("point at ~166m should be outside 100m fence")
	}

	// 边界含等号：半径恰好等于距离时应判定在内
	d := DistanceMeters(center, near)
	if !CircleContains(center, d, near) {
		t.Error("point at exactly radius distance must be contained")
	}
}

func TestPolygonContains(t *testing.T) {
	// 以 (28.6139, 77.2090) 为中心的近似正方形
	square := []Point{
		{Lat: 28.6130, Lng: 77.2080},
		{Lat: 28.6130, Lng: 77.2100},
		{Lat: 28.6148, Lng: 77.2100},
		{Lat: 28.6148, Lng: 77.2080},
	}

	inside := Point{Lat: 28.6139, Lng: 77.2090}
	if !PolygonContains(square, inside) {
		t.Error("center point should be inside square")
	}

	outside := Point{Lat: 28.7000, Lng: 77.3000}
	if PolygonContains(square, outside) {
		t.Error("far away point should be outside square")
	}

	if PolygonContains(square[:2], inside) {
		t.Error("polygon with fewer than 3 vertices must not contain anything")
	}
}

func TestPolygonContainsCentroid(t *testing.T) {
	// 正多边形的质心必然在内部
	center := Point{Lat: 28.6139, Lng: 77.2090}
	var hexagon []Point
	for i := 0; i < 6; i++ {
		angle := float64(i) * math.Pi / 3
		hexagon = append(hexagon, Point{
			Lat: center.Lat + 0.001*math.Sin(angle),
			Lng: center.Lng + 0.001*math.Cos(angle),
		})
	}

	c := PolygonBoundingCircle(hexagon)
	if !PolygonContains(hexagon, c.Center) {
		t.Error("regular polygon must contain its own centroid")
	}
}

func TestPolygonBoundingCircle(t *testing.T) {
	square := []Point{
		{Lat: 28.6130, Lng: 77.2080},
		{Lat: 28.6130, Lng: 77.2100},
		{Lat: 28.6148, Lng: 77.2100},
		{Lat: 28.6148, Lng: 77.2080},
	}

	c := PolygonBoundingCircle(square)

	var maxDist float64
	for _, v := range square {
		if d := DistanceMeters(c.Center, v); d > maxDist {
			maxDist = d
		}
	}

	if c.RadiusMeters < maxDist {
		t.Errorf("bounding radius %f smaller than max vertex distance %f", c.RadiusMeters, maxDist)
	}
	if buffer := c.RadiusMeters - maxDist; math.Abs(buffer-20) > 1e-6 {
		t.Errorf("buffer = %f, want 20", buffer)
	}

	// 所有顶点都应落在外包圆内
	for _, v := range square {
		if !CircleContains(c.Center, c.RadiusMeters, v) {
			t.Errorf("vertex %+v outside bounding circle", v)
		}
	}

	if empty := PolygonBoundingCircle(nil); empty.RadiusMeters != 0 {
		t.Errorf("empty polygon bounding radius = %f, want 0", empty.RadiusMeters)
	}
}
