// Package cam models the index star cam: its radial profile and the
// position of the spring loaded follower riding on it.
package cam

import "math"

// MaxDepth is the largest value Profile returns.
const MaxDepth = 0.2

// Profile returns how far the cam surface sits inside its nominal radius at
// angle a (radians). Six lobes come from |sin 3a|/5; between 170 and 190
// degrees a sharper |sin 4.5a|/6 notch forms the neutral detent.
func Profile(a float64) float64 {
	deg := a * 180 / math.Pi
	if deg >= 170 && deg <= 190 {
		return math.Abs(math.Sin(a*4.5)) / 6
	}
	return math.Abs(math.Sin(a*3)) / 5
}
