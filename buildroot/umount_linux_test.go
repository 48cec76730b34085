package buildroot

import (
	"reflect"
	"testing"

	"github.com/moby/sys/mountinfo"
)

func infos(mountpoints ...string) []*mountinfo.Info {
	out := make([]*mountinfo.Info, 0, len(mountpoints))
	for _, mp := range mountpoints {
		out = append(out, &mountinfo.Info{Mountpoint: mp})
	}
	return out
}

func TestResidualMountsReverseOrder(t *testing.T) {
	table := infos("/sb/a", "/sb/a/b", "/sb/a/b/c", "/other", "/sbx/a")
	got := residualMounts("/sb", table)
	want := []string{"/sb/a/b/c", "/sb/a/b", "/sb/a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("residualMounts = %v, want %v", got, want)
	}
}

func TestResidualMountsNeverMatchesBareRoot(t *testing.T) {
	got := residualMounts("/sb/root", infos("/sb/root", "/sb/root/proc"))
	want := []string{"/sb/root/proc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("residualMounts = %v, want %v", got, want)
	}
}

func TestResidualMountsRefusesFilesystemRoot(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for filesystem root")
		}
	}()
	residualMounts("/", infos("/sb/a"))
}
