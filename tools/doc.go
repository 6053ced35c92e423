// Package tools defines the tool surface offered to the model: web search
// through SearXNG and downloads into the local artifact store. The Toolbox
// carries the state that lets an image search feed a later topic download.
package tools
