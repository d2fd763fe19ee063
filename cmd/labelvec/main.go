package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/peterstace/simplefeatures/geom"

	"labelvec/internal/models"
	"labelvec/pkg/config"
	"labelvec/pkg/imageio"
	"labelvec/pkg/rasterize"
	"labelvec/pkg/vectorize"
)

func main() {
	// Parse command line arguments
	input := flag.String("input", "", "Input file: label PNG (vectorize) or GeoJSON (rasterize)")
	output := flag.String("output", "", "Output file: GeoJSON (vectorize) or label PNG (rasterize)")
	doRasterize := flag.Bool("rasterize", false, "Convert GeoJSON polygons back into a label image")
	asPoints := flag.Bool("points", false, "Emit object centroids instead of polygons")
	offsetX := flag.Int("offset-x", 0, "Global map x-offset of the tile")
	offsetY := flag.Int("offset-y", 0, "Global map y-offset of the tile")
	width := flag.Int("width", 0, "Output plane width in pixels (rasterize)")
	height := flag.Int("height", 0, "Output plane height in pixels (rasterize)")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of planes to process concurrently")
	configPath := flag.String("config", "", "Optional YAML configuration file")
	flag.Parse()

	// Validate inputs
	if *input == "" || *output == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	offset := models.Offset{X: *offsetX, Y: *offsetY}
	if *offsetX == 0 && *offsetY == 0 {
		offset = models.Offset{X: cfg.Offset.X, Y: cfg.Offset.Y}
	}

	startTime := time.Now()
	if *doRasterize {
		if *width <= 0 || *height <= 0 {
			log.Fatalf("Rasterization requires -width and -height")
		}
		if err := runRasterize(*input, *output, offset, *width, *height, *workers); err != nil {
			log.Fatalf("Rasterization failed: %v", err)
		}
	} else {
		params := &vectorize.Params{
			Offset:            offset,
			Workers:           *workers,
			FallbackHalfWidth: cfg.Vectorize.FallbackSquareHalfWidth,
			Verbose:           cfg.Output.Verbose,
		}
		if err := runVectorize(*input, *output, params, *asPoints); err != nil {
			log.Fatalf("Vectorization failed: %v", err)
		}
	}
	fmt.Printf("Completed in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Printf("Output saved to: %s\n", *output)
}

// runVectorize converts a label PNG into a GeoJSON feature collection of
// polygons (or centroids) in global map coordinates.
func runVectorize(input, output string, params *vectorize.Params, asPoints bool) error {
	plane, err := imageio.ReadPlane(input)
	if err != nil {
		return err
	}
	stack := models.StackFromPlane(plane)
	converter := vectorize.NewConverter(params)
	borders := converter.BorderObjects(stack)

	fc := geojson.NewFeatureCollection()
	if asPoints {
		for _, p := range converter.Points(stack) {
			feature := geojson.NewFeature(orb.Point{float64(p.X), float64(p.Y)})
			setProperties(feature, p.Key, borders[p.Key])
			fc.Append(feature)
		}
	} else {
		polys, err := converter.Polygons(stack)
		if err != nil {
			return err
		}
		fmt.Printf("Vectorized %d objects from %dx%d plane\n", len(polys), plane.Width, plane.Height)
		for _, p := range polys {
			feature := geojson.NewFeature(orbPolygon(p.Polygon))
			setProperties(feature, p.Key, borders[p.Key])
			fc.Append(feature)
		}
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("error encoding GeoJSON: %w", err)
	}
	return os.WriteFile(output, data, 0644)
}

// runRasterize converts a GeoJSON feature collection back into label PNGs,
// one file per (t, z) plane.
func runRasterize(input, output string, offset models.Offset, width, height, workers int) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("error reading GeoJSON: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("error parsing GeoJSON: %w", err)
	}

	polygons := make(map[models.ObjectKey]geom.Polygon, len(fc.Features))
	sizeZ, sizeT := 1, 1
	for i, feature := range fc.Features {
		poly, ok := feature.Geometry.(orb.Polygon)
		if !ok {
			return fmt.Errorf("feature %d is %T, want Polygon", i, feature.Geometry)
		}
		key := models.ObjectKey{
			T:     intProperty(feature, "tpoint"),
			Z:     intProperty(feature, "zplane"),
			Label: int32(intProperty(feature, "label")),
		}
		if key.Label <= 0 {
			return fmt.Errorf("feature %d has no positive label property", i)
		}
		polygons[key] = geomPolygon(poly)
		sizeZ = max(sizeZ, key.Z+1)
		sizeT = max(sizeT, key.T+1)
	}

	stack, err := rasterize.Rasterize(polygons, offset, width, height, sizeZ, sizeT, workers)
	if err != nil {
		return err
	}
	fmt.Printf("Rasterized %d objects into %d plane(s)\n", len(polygons), sizeZ*sizeT)

	for idx, plane := range stack.Planes() {
		path := output
		if sizeZ*sizeT > 1 {
			path = fmt.Sprintf("%s_t%03d_z%03d.png", output, idx.T, idx.Z)
		}
		if err := imageio.WritePlane(plane, path); err != nil {
			return err
		}
	}
	return nil
}

func setProperties(feature *geojson.Feature, key models.ObjectKey, border bool) {
	feature.Properties["label"] = int(key.Label)
	feature.Properties["tpoint"] = key.T
	feature.Properties["zplane"] = key.Z
	feature.Properties["is_border"] = border
}

func intProperty(feature *geojson.Feature, name string) int {
	switch v := feature.Properties[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// orbPolygon converts a simplefeatures polygon to an orb polygon for
// GeoJSON encoding.
func orbPolygon(p geom.Polygon) orb.Polygon {
	rings := make(orb.Polygon, 0, 1+p.NumInteriorRings())
	rings = append(rings, orbRing(p.ExteriorRing()))
	for i := 0; i < p.NumInteriorRings(); i++ {
		rings = append(rings, orbRing(p.InteriorRingN(i)))
	}
	return rings
}

func orbRing(ls geom.LineString) orb.Ring {
	seq := ls.Coordinates()
	ring := make(orb.Ring, 0, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		ring = append(ring, orb.Point{xy.X, xy.Y})
	}
	return ring
}

// geomPolygon converts an orb polygon parsed from GeoJSON to a
// simplefeatures polygon.
func geomPolygon(p orb.Polygon) geom.Polygon {
	rings := make([]geom.LineString, 0, len(p))
	for _, ring := range p {
		coords := make([]float64, 0, 2*len(ring))
		for _, pt := range ring {
			coords = append(coords, pt[0], pt[1])
		}
		rings = append(rings, geom.NewLineString(geom.NewSequence(coords, geom.DimXY)))
	}
	return geom.NewPolygon(rings)
}
