package scanning

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNmapPath = "/usr/local/bin/nmap"

func buildArgs(t *testing.T, config ScanConfig, target string) (*Command, []string) {
	t.Helper()
	cmd, err := BuildCommand(context.Background(), config, testNmapPath, target)
	require.NoError(t, err)
	t.Cleanup(cmd.Cleanup)
	return cmd, cmd.Args
}

func TestBuildCommand_Profiles(t *testing.T) {
	tests := []struct {
		profile  Profile
		expected []string
	}{
		{ProfileDefault, []string{"-T4"}},
		{ProfileQuick, []string{"-T4"}},
		{ProfileFull, []string{"-T3", "-Pn"}},
		{ProfileStealth, []string{"-sS", "-T2"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			cmd, args := buildArgs(t, ScanConfig{Profile: tt.profile, Ports: "22"}, "192.0.2.1")

			expected := append(append([]string{}, tt.expected...),
				"-p", "22", "-oX", cmd.OutputFile, "-n", "192.0.2.1")
			assert.Equal(t, expected, args)
		})
	}
}

func TestBuildCommand_Detection(t *testing.T) {
	tests := []struct {
		name     string
		config   ScanConfig
		expected []string
	}{
		{
			name:     "none",
			config:   ScanConfig{Profile: ProfileDefault},
			expected: nil,
		},
		{
			name:     "service version only",
			config:   ScanConfig{Profile: ProfileDefault, ServiceVersion: true},
			expected: []string{"-sV"},
		},
		{
			name:     "all three toggles",
			config:   ScanConfig{Profile: ProfileDefault, ServiceVersion: true, OSDetection: true, ScriptScan: true},
			expected: []string{"-sV", "-O", "-sC"},
		},
		{
			name:     "os and scripts",
			config:   ScanConfig{Profile: ProfileDefault, OSDetection: true, ScriptScan: true},
			expected: []string{"-O", "-sC"},
		},
		{
			name: "aggressive supersedes toggles",
			config: ScanConfig{
				Profile: ProfileDefault, Aggressive: true,
				ServiceVersion: true, OSDetection: true, ScriptScan: true,
			},
			expected: []string{"-A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Ports = "80"
			cmd, args := buildArgs(t, tt.config, "scanme.example")

			expected := append([]string{"-T4"}, tt.expected...)
			expected = append(expected, "-p", "80", "-oX", cmd.OutputFile, "-n", "scanme.example")
			assert.Equal(t, expected, args)
		})
	}
}

func TestBuildCommand_DefaultPorts(t *testing.T) {
	_, args := buildArgs(t, ScanConfig{Profile: ProfileQuick}, "10.0.0.0/24")

	idx := indexOf(args, "-p")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, DefaultPortList(), args[idx+1])
	assert.Equal(t, "10.0.0.0/24", args[len(args)-1])
}

func TestBuildCommand_OutputFile(t *testing.T) {
	cmd, _ := buildArgs(t, ScanConfig{Profile: ProfileDefault}, "192.0.2.1")

	assert.Equal(t, testNmapPath, cmd.Path)
	assert.Equal(t, "192.0.2.1", cmd.Target)
	assert.True(t, strings.HasSuffix(cmd.OutputFile, ".xml"))
	_, err := os.Stat(cmd.OutputFile)
	require.NoError(t, err, "output file is reserved up front")

	cmd.Cleanup()
	_, err = os.Stat(cmd.OutputFile)
	assert.True(t, os.IsNotExist(err))

	assert.NotPanics(t, cmd.Cleanup, "cleanup twice")
}

func TestBuildCommand_UniqueOutputFiles(t *testing.T) {
	first, _ := buildArgs(t, ScanConfig{Profile: ProfileDefault}, "192.0.2.1")
	second, _ := buildArgs(t, ScanConfig{Profile: ProfileDefault}, "192.0.2.1")
	assert.NotEqual(t, first.OutputFile, second.OutputFile)
}

func TestCommandString(t *testing.T) {
	cmd := &Command{Path: "nmap", Args: []string{"-T4", "-p", "22", "192.0.2.1"}}
	assert.Equal(t, "nmap -T4 -p 22 192.0.2.1", cmd.String())
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}
