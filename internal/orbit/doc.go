// Package orbit converts between Cartesian states and classical Keplerian
// elements and provides the time helpers used by scenarios.
//
// Angles are in radians throughout. For a circular orbit the argument of
// perigee is 0 and the true anomaly is measured from the node; for an
// equatorial orbit the node is taken on the x-axis.
package orbit
