package scm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/NVIDIA/gitops-portal/pkg/defaults"
)

// maxIssuedBranches bounds the names remembered by NewBranchName. Past it the
// record starts over.
const maxIssuedBranches = 1 << 16

var issued = struct {
	sync.Mutex
	names sets.Set[string]
}{names: sets.New[string]()}

// NewBranchName returns deploy/{appName}-{suffix} with a random hex suffix.
// Names are never repeated within a process.
func NewBranchName(appName string) string {
	issued.Lock()
	defer issued.Unlock()

	if issued.names.Len() >= maxIssuedBranches {
		issued.names = sets.New[string]()
	}

	for {
		name := fmt.Sprintf("%s/%s-%s", defaults.BranchPrefix, appName, randomSuffix())
		if !issued.names.Has(name) {
			issued.names.Insert(name)
			return name
		}
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:defaults.BranchSuffixLength]
}
