// Package timegrid implements the day-timeline geometry: the mapping between
// clock-of-day minutes and vertical pixel offsets for a configured visible
// window, the slot boundary lines of the grid, and the partitioning of one
// day's events into horizontally adjacent stacks. All functions are pure;
// the package holds no clock and performs no I/O.
package timegrid
