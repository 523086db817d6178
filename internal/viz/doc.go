// Package viz renders evaluation reports for the terminal.
//
//   - [ResponsePlot] and [BodePlot]: asciigraph line charts
//   - [PoleZeroMap]: character map of the s-plane, x for poles, o for zeros
//   - [Canvas]: Braille pixel canvas used by the explorer for compact plots
//   - [Summary] and [Notes]: lipgloss-styled metrics and teaching notes
//
// Colors come from the active [Theme].
package viz
