package transmission

import "fmt"

// shiftDescriptions[p] holds the text for arriving at position p by a
// downshift (index 0) and by an upshift (index 1).
var shiftDescriptions = [Positions][2]string{
	{"5th gear moves to pin 1st gear", ""},
	{"6th gear moves away from 2nd gear", "5th gear moves away from 1st gear"},
	{"6th gear moves from 3rd gear to pin 2nd gear", "6th gear moves to pin 2nd gear"},
	{"6th gear moves away from 4th gear, 6th gear moves to pin 3rd gear", "6th gear moves from 2nd gear to pin 3rd gear"},
	{"3rd/4th moves away from 5th gear, 5th gear moves to pin 4th gear", "6th gear moves away from 3rd gear, 5th gear moves to pin 4th gear"},
	{"3rd/4th moves from 6th gear to pin 5th gear", "5th gear moves away from 4th gear, 3rd/4th moves to pin 5th gear"},
	{"", "3rd/4th moves from 5th gear to pin 6th gear"},
}

// Describe returns what the sliding gears do when the box arrives at
// position to from an adjacent position.
func Describe(from, to int) string {
	if to < 0 || to >= Positions || from == to {
		return ""
	}
	if to > from {
		return shiftDescriptions[to][1]
	}
	return shiftDescriptions[to][0]
}

// PositionName returns the rider's name for a selector position.
func PositionName(p int) string {
	switch {
	case p == Neutral:
		return "N"
	case p == First:
		return "1st"
	case p > Neutral && p < Positions:
		return ordinal(p)
	}
	return fmt.Sprintf("position %d", p)
}

func ordinal(n int) string {
	switch n {
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	}
	return fmt.Sprintf("%dth", n)
}
