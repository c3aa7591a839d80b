//go:build !headless

package main

import "pipelined.dev/rack/oto"

func init() {
	backends["oto"] = func(render renderFunc, sampleRate float32, bufferSize int) (device, error) {
		return oto.Open(render, int(sampleRate), numChannels, bufferSize)
	}
}
