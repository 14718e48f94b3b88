package loaderentry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandLine(t *testing.T) {
	for _, tc := range []struct {
		name  string
		entry Entry
		want  string
	}{
		{"options and initrd", Entry{Options: "rw", Initrd: `\dracut.img`}, `rw initrd=\dracut.img`},
		{"initrd is normalized", Entry{Options: "rw", Initrd: "/dracut.img"}, `rw initrd=\dracut.img`},
		{"options only", Entry{Options: "root=/dev/sda1 quiet"}, "root=/dev/sda1 quiet"},
		{"initrd only", Entry{Initrd: `\initrd`}, `initrd=\initrd`},
		{"nothing", Entry{}, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.entry.CommandLine())
		})
	}
}

func TestString(t *testing.T) {
	for _, tc := range []struct {
		name  string
		entry Entry
		want  string
	}{
		{"title", Entry{Title: "Gentoo Linux", Payload: Payload{PayloadLinux, `\vmlinuz`}}, "Gentoo Linux"},
		{"title and version", Entry{Title: "Gentoo Linux", Version: "4.20"}, "Gentoo Linux (4.20)"},
		{"linux", Entry{Payload: Payload{PayloadLinux, `\vmlinuz`}}, `Linux \vmlinuz`},
		{"efi with version", Entry{Version: "1", Payload: Payload{PayloadEFI, `\shell.efi`}}, `EFI executable \shell.efi (1)`},
		{"filename fallback", Entry{Filename: "broken.conf"}, "broken.conf"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.entry.String())
		})
	}
}

func TestPayloadKindString(t *testing.T) {
	require.Equal(t, "efi", PayloadEFI.String())
	require.Equal(t, "linux", PayloadLinux.String())
	require.Equal(t, "unknown", PayloadKind(0).String())
}
