package overlay

import (
	"strconv"

	"seehuhn.de/go/geom/vec"

	"github.com/samirrijal/stopmap/internal/core/domain"
	"github.com/samirrijal/stopmap/internal/pkg/geospatial"
)

const (
	// DefaultZoom stands in for an unknown (zero) zoom level.
	DefaultZoom = 16
	// DefaultMaxClusteringZoom is the deepest zoom at which markers are
	// still grouped.
	DefaultMaxClusteringZoom = 17

	clusterTextSize = 20
)

// ClusterRadius is the grouping radius in pixels at zoom. Non-positive zoom
// levels are replaced by defaultZoom first.
func ClusterRadius(zoom, defaultZoom int) int {
	if zoom <= 0 {
		zoom = defaultZoom
	}
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return 1000 / zoom
}

// Clusterer groups nearby markers so that dense areas stay readable.
type Clusterer struct {
	DefaultZoom       int
	MaxClusteringZoom int
	Density           float64
}

// NewClusterer returns a clusterer with the default zoom constants.
func NewClusterer(density float64) *Clusterer {
	return &Clusterer{
		DefaultZoom:       DefaultZoom,
		MaxClusteringZoom: DefaultMaxClusteringZoom,
		Density:           density,
	}
}

// Cluster partitions markers into singles, rendered as themselves, and
// clusters of two or more. Seeds are taken in input order; every still
// ungrouped marker within the radius of a seed joins its group.
func (c *Clusterer) Cluster(markers []domain.MarkerRecord, zoom int) ([]domain.MarkerRecord, []domain.Cluster) {
	if zoom > c.MaxClusteringZoom {
		singles := make([]domain.MarkerRecord, len(markers))
		copy(singles, markers)
		return singles, nil
	}

	pz := zoom
	if pz <= 0 {
		pz = c.DefaultZoom
	}
	radius := float64(ClusterRadius(zoom, c.DefaultZoom))

	px := make([]vec.Vec2, len(markers))
	for i, m := range markers {
		px[i] = geospatial.PixelXY(m.Position, pz)
	}

	grouped := make([]bool, len(markers))
	var singles []domain.MarkerRecord
	var clusters []domain.Cluster
	for i := range markers {
		if grouped[i] {
			continue
		}
		grouped[i] = true
		members := []int{i}
		for j := i + 1; j < len(markers); j++ {
			if grouped[j] {
				continue
			}
			if geospatial.PixelDistance(px[i], px[j]) <= radius {
				grouped[j] = true
				members = append(members, j)
			}
		}

		if len(members) == 1 {
			singles = append(singles, markers[i])
			continue
		}
		handles := make([]domain.MarkerHandle, len(members))
		for k, idx := range members {
			handles[k] = markers[idx].Handle
		}
		clusters = append(clusters, domain.Cluster{
			Position: markers[i].Position,
			Members:  handles,
			Label:    strconv.Itoa(len(members)),
			TextSize: clusterTextSize * c.Density,
			Icon:     domain.IconStopCluster,
		})
	}
	return singles, clusters
}
