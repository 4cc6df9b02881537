// Package export renders recorded runs as standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/shatter/internal/storage"
)

var strokePalette = []string{
	"#00ff00", "#00c8ff", "#ff8c00", "#ff4ca8",
	"#c8ff00", "#9664ff", "#ff5032", "#64ffc8",
}

// HeightSVG plots body height against time, one polyline per body.
func HeightSVG(frames []storage.Frame, width, height int) string {
	return polylines(frames, width, height,
		func(f storage.Frame) (float64, float64) { return f.Time, f.Y })
}

// TopDownSVG plots the x/z ground-plane track of every body.
func TopDownSVG(frames []storage.Frame, width, height int) string {
	return polylines(frames, width, height,
		func(f storage.Frame) (float64, float64) { return f.X, f.Z })
}

func polylines(frames []storage.Frame, width, height int, project func(storage.Frame) (x, y float64)) string {
	if len(frames) == 0 {
		return ""
	}

	type point struct{ x, y float64 }
	byBody := make(map[int][]point)
	order := make([]int, 0)
	minX, maxX := 0.0, 0.0
	minY, maxY := 0.0, 0.0
	first := true
	for _, f := range frames {
		x, y := project(f)
		if first {
			minX, maxX, minY, maxY = x, x, y, y
			first = false
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
		if _, seen := byBody[f.Body]; !seen {
			order = append(order, f.Body)
		}
		byBody[f.Body] = append(byBody[f.Body], point{x, y})
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for k, body := range order {
		pts := byBody[body]
		if len(pts) < 2 {
			continue
		}
		color := strokePalette[k%len(strokePalette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for i, p := range pts {
			x := (p.x - minX) / rangeX * float64(width)
			y := float64(height) - (p.y-minY)/rangeY*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
