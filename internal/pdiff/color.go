/*
Metric functions
Copyright (C) 2006-2011 Yangli Hector Yee
Copyright (C) 2011-2016 Steven Myint, Jeff Terrace
Copyright (C) 2023 Ivan Latunov

This program is free software; you can redistribute it and/or modify it under
the terms of the GNU General Public License as published by the Free Software
Foundation; either version 2 of the License, or (at your option) any later
version.

This program is distributed in the hope that it will be useful, but WITHOUT ANY
WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
PARTICULAR PURPOSE.  See the GNU General Public License for more details.

You should have received a copy of the GNU General Public License along with
this program; if not, write to the Free Software Foundation, Inc., 59 Temple
Place, Suite 330, Boston, MA 02111-1307 USA
*/

package pdiff

import "math"

// whiteXYZ is the D65 reference white in XYZ.
var whiteXYZ = func() [3]float64 {
	x, y, z := adobeRGBToXYZ(1, 1, 1)
	return [3]float64{x, y, z}
}()

func toRadians(degrees float64) float64 { return degrees * math.Pi / 180 }
func toDegrees(radians float64) float64 { return radians * 180 / math.Pi }

// tvi is the threshold of visibility, in cd/m^2, for the given adaptation
// luminance (Ward Larson, Siggraph 1997).
func tvi(adaptationLuminance float64) float64 {
	logA := math.Log10(adaptationLuminance)

	var r float64
	switch {
	case logA < -3.94:
		r = -2.86
	case logA < -1.44:
		r = math.Pow(0.405*logA+1.6, 2.18) - 2.86
	case logA < -0.0184:
		r = logA - 0.395
	case logA < 1.9:
		r = math.Pow(0.249*logA+0.65, 2.7) - 0.72
	default:
		r = logA - 1.255
	}
	return math.Pow(10, r)
}

// csf is the contrast sensitivity function (Barten, SPIE 1989) for the given
// cycles per degree and luminance.
func csf(cpd, lum float64) float64 {
	a := 440 * math.Pow(1+0.7/lum, -0.2)
	b := 0.3 * math.Pow(1+100/lum, 0.15)
	return a * cpd * math.Exp(-b*cpd) * math.Sqrt(1+0.06*math.Exp(b*cpd))
}

// mask is Daly's visual masking function.
func mask(contrast float64) float64 {
	a := math.Pow(392.498*contrast, 0.7)
	b := math.Pow(0.0153*a, 4)
	return math.Pow(1+b, 0.25)
}

// adobeRGBToXYZ converts linear Adobe RGB (1998), D65 white, to XYZ.
// Matrix from http://www.brucelindbloom.com/.
func adobeRGBToXYZ(r, g, b float64) (x, y, z float64) {
	return r*0.576700 + g*0.185556 + b*0.188212,
		r*0.297361 + g*0.627355 + b*0.0752847,
		r*0.0270328 + g*0.0706879 + b*0.991248
}

func xyzToLab(x, y, z float64) (l, a, b float64) {
	const (
		epsilon = 216.0 / 24389.0
		kappa   = 24389.0 / 27.0
	)
	r := [3]float64{x / whiteXYZ[0], y / whiteXYZ[1], z / whiteXYZ[2]}
	var f [3]float64
	for i, v := range r {
		if v > epsilon {
			f[i] = math.Cbrt(v)
		} else {
			f[i] = (kappa*v + 16) / 116
		}
	}
	return 116*f[1] - 16, 500 * (f[0] - f[1]), 200 * (f[1] - f[2])
}

// adaptationLevel is the first pyramid level whose pixel footprint exceeds
// one degree of visual field.
func adaptationLevel(oneDegreePixels float64) int {
	n := 1.0
	level := 0
	for i := 0; i < maxPyramidLevels; i++ {
		level = i
		if n > oneDegreePixels {
			break
		}
		n *= 2
	}
	return level
}
