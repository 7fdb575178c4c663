package config

const (
	WindowWidth  = 1024
	WindowHeight = 512
	WindowTitle  = "gridscan - Esc/Q: Quit"

	// Device pixel ratio cap
	MaxPixelRatio = 2.0

	// Scan buffer
	MaxScans     = 8
	ScanSentinel = -1000.0

	// Render loop
	MaxFrameDelta = 0.1 // seconds
	SwayAmplitude = 0.1
	SwayFreqX     = 0.2
	SwayFreqY     = 0.15
	LookToTilt    = 0.2
	LookToYaw     = 0.2

	// Terminal host
	TerminalFPS = 30

	// Scan chime
	ChimeSampleRate = 44100
	ChimeDuration   = 0.18 // seconds
	ChimeForwardHz  = 880.0
	ChimeBackwardHz = 660.0
	ChimeVolume     = -2.0 // base-2 exponent, effects.Volume
	ChimeRingSize   = 2048 // samples kept for the level meter

	// Relay
	DefaultAddr         = ":3000"
	DefaultPublicDir    = "public"
	DefaultPollInterval = 5.0 // seconds
	DefaultMQTTTopic    = "gridscan/questions"
)
