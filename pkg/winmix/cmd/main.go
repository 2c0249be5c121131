package main

import (
	"github.com/nik9play/winmix/pkg/cli"
)

var (
	gitCommit  string
	versionTag string
	buildType  string
)

func main() {
	cli.Execute(cli.BuildInfo{
		BuildType:  buildType,
		GitCommit:  gitCommit,
		VersionTag: versionTag,
	})
}
