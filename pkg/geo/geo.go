package geo

import "math"

// earthRadiusMeters 地球平均半径
const earthRadiusMeters = 6371000.0

// boundingBufferMeters 多边形降级为圆时外加的固定缓冲
const boundingBufferMeters = 20.0

// Point 经纬度坐标（十进制度）
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Circle 圆形围栏
type Circle struct {
	Center       Point   `json:"center"`
	RadiusMeters float64 `json:"radius_meters"`
}

// DistanceMeters 两点间大圆距离（haversine），单位米
func DistanceMeters(p1, p2 Point) float64 {
	dLat := (p2.Lat - p1.Lat) * math.Pi / 180
	dLng := (p2.Lng - p1.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(p1.Lat*math.Pi/180)*math.Cos(p2.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// CircleContains 点是否落在圆形围栏内（含边界）
func CircleContains(center Point, radiusMeters float64, p Point) bool {
	return DistanceMeters(center, p) <= radiusMeters
}

// PolygonContains 射线法判断点是否在多边形内。顶点按闭环处理，
// 少于 3 个顶点视为无效，返回 false。
func PolygonContains(vertices []Point, p Point) bool {
	if len(vertices) < 3 {
		return false
	}

	inside := false
	j := len(vertices) - 1
	for i := 0; i < len(vertices); i++ {
		vi, vj := vertices[i], vertices[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			x := (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
		j = i
	}

	return inside
}

// PolygonBoundingCircle 将多边形降级为外包圆：圆心取顶点算术平均，
// 半径取圆心到最远顶点的距离加固定缓冲。仅用于给旧客户端生成近似
// 配置，围栏判定必须走 PolygonContains。
func PolygonBoundingCircle(vertices []Point) Circle {
	if len(vertices) == 0 {
		return Circle{}
	}

	var sumLat, sumLng float64
	for _, v := range vertices {
		sumLat += v.Lat
		sumLng += v.Lng
	}
	center := Point{
		Lat: sumLat / float64(len(vertices)),
		Lng: sumLng / float64(len(vertices)),
	}

	var maxDist float64
	for _, v := range vertices {
		if d := DistanceMeters(center, v); d > maxDist {
			maxDist = d
		}
	}

	return Circle{
		Center:       center,
		RadiusMeters: maxDist + boundingBufferMeters,
	}
}
