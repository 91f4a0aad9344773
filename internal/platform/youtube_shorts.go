package platform

type YouTubeShorts struct{}

func init() {
	Register(&YouTubeShorts{})
}

func (p *YouTubeShorts) GetName() string {
	return "youtube-shorts"
}

func (p *YouTubeShorts) GetDimensions() (width, height int) {
	return 1080, 1920
}

func (p *YouTubeShorts) GetMaxDuration() int {
	return 60
}

func (p *YouTubeShorts) GetVideoCodec() string {
	return "libx264"
}

func (p *YouTubeShorts) GetAudioCodec() string {
	return "aac"
}

func (p *YouTubeShorts) GetVideoBitrate() string {
	return "8M"
}

func (p *YouTubeShorts) GetAudioBitrate() string {
	return "192k"
}

func (p *YouTubeShorts) GetOutputFormat() string {
	return "mp4"
}
