// Package register registers all relevant cameras.
package register

import (
	// register cameras.
	_ "go.viam.com/motiondetect/components/camera/fake"
	_ "go.viam.com/motiondetect/components/camera/ffmpeg"
)
