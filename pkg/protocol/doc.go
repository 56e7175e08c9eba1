// ABOUTME: Monitor protocol package for streaming captured audio
// ABOUTME: Message types and a websocket client for the rtbridge monitor
// Package protocol implements the rtbridge monitor protocol.
//
// A client connects to the monitor's /stream websocket and sends
// client/hello listing the formats it can decode. The server answers with
// server/hello and stream/start, then sends binary audio chunks and periodic
// monitor/stats messages describing the capture ring.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "host:8927"})
//	if err := client.Connect(ctx); err != nil { ... }
//	for chunk := range client.AudioChunks { ... }
package protocol
