package worker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antigravity/kraken-worker/internal/geo"
	"github.com/antigravity/kraken-worker/internal/kerrors"
	"github.com/antigravity/kraken-worker/internal/transit"
	"github.com/antigravity/kraken-worker/internal/wire"
)

// EntryPointKind tags how an EntryPoint was resolved: a resolved
// origin/destination descriptor (coord, address, stop_area, stop_point,
// admin, or poi).
type EntryPointKind int

const (
	EntryCoord EntryPointKind = iota
	EntryAddress
	EntryStopArea
	EntryStopPoint
	EntryAdmin
	EntryPOI
)

// EntryPoint is a resolved origin or destination.
type EntryPoint struct {
	Kind  EntryPointKind
	Coord geo.Coordinate

	StopPoint transit.StopPointID
	StopArea  transit.StopAreaID
	Admin     transit.AdminID
}

const addressURIPrefix = "address:"

// ResolveEntryPoint implements entry-point resolution for
// each of the tagged PlaceRef kinds. An "address:" URI encodes its
// coordinate as "address:<lon>;<lat>" per internal URI scheme.
func ResolveEntryPoint(ds *transit.Dataset, ref wire.PlaceRef) (EntryPoint, error) {
	switch {
	case ref.Coord != nil:
		return EntryPoint{Kind: EntryCoord, Coord: geo.Coordinate{Lon: ref.Coord.Lon, Lat: ref.Coord.Lat}}, nil

	case ref.StopPoint != "":
		spID, ok := ds.StopPointByURI[ref.StopPoint]
		if !ok {
			return EntryPoint{}, kerrors.Inputf("worker: unknown stop point %q", ref.StopPoint)
		}
		sp := ds.StopPoint(spID)
		return EntryPoint{Kind: EntryStopPoint, Coord: sp.Coord, StopPoint: spID, StopArea: sp.StopArea}, nil

	case ref.StopArea != "":
		for _, sa := range ds.StopAreas {
			if sa.URI == ref.StopArea {
				return EntryPoint{Kind: EntryStopArea, Coord: sa.Coord, StopArea: sa.ID}, nil
			}
		}
		return EntryPoint{}, kerrors.Inputf("worker: unknown stop area %q", ref.StopArea)

	case ref.Admin != "":
		for _, a := range ds.Admins {
			if a.URI == ref.Admin {
				return EntryPoint{Kind: EntryAdmin, Admin: a.ID}, nil
			}
		}
		return EntryPoint{}, kerrors.Inputf("worker: unknown admin %q", ref.Admin)

	case ref.Address != "":
		coord, err := parseAddressURI(ref.Address)
		if err != nil {
			return EntryPoint{}, kerrors.Inputf("worker: bad address uri %q: %v", ref.Address, err)
		}
		return EntryPoint{Kind: EntryAddress, Coord: coord}, nil

	case ref.POI != "":
		return EntryPoint{}, kerrors.Inputf("worker: poi resolution requires the autocomplete index (out of scope)")

	default:
		return EntryPoint{}, kerrors.Inputf("worker: empty place reference")
	}
}

func parseAddressURI(uri string) (geo.Coordinate, error) {
	if !strings.HasPrefix(uri, addressURIPrefix) {
		return geo.Coordinate{}, fmt.Errorf("missing %q prefix", addressURIPrefix)
	}
	rest := strings.TrimPrefix(uri, addressURIPrefix)
	parts := strings.SplitN(rest, ";", 2)
	if len(parts) != 2 {
		return geo.Coordinate{}, fmt.Errorf("expected \"lon;lat\"")
	}
	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("bad lon: %w", err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("bad lat: %w", err)
	}
	return geo.Coordinate{Lon: lon, Lat: lat}, nil
}
