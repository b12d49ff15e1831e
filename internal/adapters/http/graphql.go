package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

// handleField resolves a domain.MarkerHandle field, which graphql-go's Int
// scalar does not coerce on its own.
func handleField(get func(interface{}) domain.MarkerHandle) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Int,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return int(get(p.Source)), nil
		},
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	rectangleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoRectangle",
		Fields: graphql.Fields{
			"north_west": &graphql.Field{Type: geoPointType},
			"south_east": &graphql.Field{Type: geoPointType},
		},
	})

	stopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stop",
		Fields: graphql.Fields{
			"number":   &graphql.Field{Type: graphql.Int},
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"routes": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Stop).RouteNumbers(), nil
				},
			},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"handle": handleField(func(src interface{}) domain.MarkerHandle {
				return src.(domain.MarkerRecord).Handle
			}),
			"stop_number": &graphql.Field{Type: graphql.Int},
			"title":       &graphql.Field{Type: graphql.String},
			"position":    &graphql.Field{Type: geoPointType},
			"icon":        &graphql.Field{Type: graphql.String},
		},
	})

	clusterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Cluster",
		Fields: graphql.Fields{
			"position":  &graphql.Field{Type: geoPointType},
			"label":     &graphql.Field{Type: graphql.String},
			"text_size": &graphql.Field{Type: graphql.Float},
			"icon":      &graphql.Field{Type: graphql.String},
			"members": &graphql.Field{
				Type: graphql.NewList(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					members := p.Source.(domain.Cluster).Members
					out := make([]int, len(members))
					for i, h := range members {
						out[i] = int(h)
					}
					return out, nil
				},
			},
		},
	})

	segmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Segment",
		Fields: graphql.Fields{
			"from": &graphql.Field{Type: geoPointType},
			"to":   &graphql.Field{Type: geoPointType},
		},
	})

	polylineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Polyline",
		Fields: graphql.Fields{
			"route_number": &graphql.Field{Type: graphql.String},
			"pattern":      &graphql.Field{Type: graphql.String},
			"color":        &graphql.Field{Type: graphql.String},
			"width":        &graphql.Field{Type: graphql.Float},
			"segments":     &graphql.Field{Type: graphql.NewList(segmentType)},
		},
	})

	legendType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LegendEntry",
		Fields: graphql.Fields{
			"route_number": &graphql.Field{Type: graphql.String},
			"color":        &graphql.Field{Type: graphql.String},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PassStats",
		Fields: graphql.Fields{
			"visible_stops":    &graphql.Field{Type: graphql.Int},
			"markers_created":  &graphql.Field{Type: graphql.Int},
			"markers_reused":   &graphql.Field{Type: graphql.Int},
			"segments_kept":    &graphql.Field{Type: graphql.Int},
			"segments_dropped": &graphql.Field{Type: graphql.Int},
			"clusters":         &graphql.Field{Type: graphql.Int},
		},
	})

	frameType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Frame",
		Fields: graphql.Fields{
			"viewport":  &graphql.Field{Type: rectangleType},
			"zoom":      &graphql.Field{Type: graphql.Int},
			"markers":   &graphql.Field{Type: graphql.NewList(markerType)},
			"clusters":  &graphql.Field{Type: graphql.NewList(clusterType)},
			"polylines": &graphql.Field{Type: graphql.NewList(polylineType)},
			"legend":    &graphql.Field{Type: graphql.NewList(legendType)},
			"stats":     &graphql.Field{Type: statsType},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"viewport":      &graphql.Field{Type: rectangleType},
			"zoom":          &graphql.Field{Type: graphql.Int},
			"selected_stop": &graphql.Field{Type: graphql.Int},
			"nearest_stop":  &graphql.Field{Type: graphql.Int},
			"location":      &graphql.Field{Type: geoPointType},
			"markers":       &graphql.Field{Type: graphql.Int},
			"created_at":    &graphql.Field{Type: graphql.DateTime},
			"updated_at":    &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"stop": &graphql.Field{
				Type:        stopType,
				Description: "Get a stop by number",
				Args: graphql.FieldConfigArgument{
					"number": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.Stop(p.Context, p.Args["number"].(int))
				},
			},
			"stopsWithin": &graphql.Field{
				Type:        graphql.NewList(stopType),
				Description: "Stops inside a rectangle, in catalog order",
				Args: graphql.FieldConfigArgument{
					"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r := domain.GeoRectangle{
						NorthWest: domain.GeoPoint{Lat: p.Args["north"].(float64), Lon: p.Args["west"].(float64)},
						SouthEast: domain.GeoPoint{Lat: p.Args["south"].(float64), Lon: p.Args["east"].(float64)},
					}
					return deps.Catalog.StopsWithin(p.Context, r)
				},
			},
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Get a map session by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.Get(p.Context, p.Args["id"].(string))
				},
			},
			"frame": &graphql.Field{
				Type:        frameType,
				Description: "Redraw a session and return the frame",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.Redraw(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		if deps.Catalog == nil || deps.Sessions == nil {
			return errUnavailable(c, "catalog not available")
		}

		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
