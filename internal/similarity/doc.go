// Package similarity builds the N×N similarity matrix consumed by the message-passing engine.
//
// S(i,j) holds the negated distance between points i and j, so larger values
// mean more similar. The diagonal is reserved for preferences and is written
// separately by SetPreferences, either from caller input or from Median.
package similarity
