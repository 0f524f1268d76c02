// Package advert is the advertisement plugin: it cycles through a configured
// list of chat messages and broadcasts one every AdInterval seconds.
package advert
