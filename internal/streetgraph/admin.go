package streetgraph

// AdminID indexes AdminIndex.Admins.
type AdminID int32

// Admin is an administrative region (city, zip, ...), indexed by its
// polygon boundary. Polygon is a single ring (no holes) of (lon, lat)
// points; the last point need not repeat the first.
type Admin struct {
	ID      AdminID
	URI     string
	Name    string
	Polygon []Coordinate
	minLon, minLat, maxLon, maxLat float64
}

func boundsOf(poly []Coordinate) (minLon, minLat, maxLon, maxLat float64) {
	if len(poly) == 0 {
		return
	}
	minLon, maxLon = poly[0].Lon, poly[0].Lon
	minLat, maxLat = poly[0].Lat, poly[0].Lat
	for _, p := range poly[1:] {
		if p.Lon < minLon {
			minLon = p.Lon
		}
		if p.Lon > maxLon {
			maxLon = p.Lon
		}
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
	}
	return
}

// AdminIndex answers point-in-polygon lookups over a registry of Admins.
//
// No R-tree/k-d-tree library is used here, so this falls back to a
// bounding-box prefilter plus exact point-in-polygon, the same
// bbox-filtered approach the PostGIS-backed viewport queries use.
type AdminIndex struct {
	Admins []Admin
}

// NewAdminIndex returns an empty index; use Add to register admins.
func NewAdminIndex() *AdminIndex {
	return &AdminIndex{}
}

// Add registers an admin polygon and returns its assigned AdminID.
func (ai *AdminIndex) Add(uri, name string, polygon []Coordinate) AdminID {
	id := AdminID(len(ai.Admins))
	minLon, minLat, maxLon, maxLat := boundsOf(polygon)
	ai.Admins = append(ai.Admins, Admin{
		ID: id, URI: uri, Name: name, Polygon: polygon,
		minLon: minLon, minLat: minLat, maxLon: maxLon, maxLat: maxLat,
	})
	return id
}

// FindAdmins returns every admin whose polygon contains c.
func (ai *AdminIndex) FindAdmins(c Coordinate) []Admin {
	var out []Admin
	for _, a := range ai.Admins {
		if c.Lon < a.minLon || c.Lon > a.maxLon || c.Lat < a.minLat || c.Lat > a.maxLat {
			continue
		}
		if pointInPolygon(c, a.Polygon) {
			out = append(out, a)
		}
	}
	return out
}

// pointInPolygon implements the standard ray-casting test.
func pointInPolygon(p Coordinate, poly []Coordinate) bool {
	inside := false
	n := len(poly)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Lat > p.Lat) != (pj.Lat > p.Lat) {
			xIntersect := (pj.Lon-pi.Lon)*(p.Lat-pi.Lat)/(pj.Lat-pi.Lat) + pi.Lon
			if p.Lon < xIntersect {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
