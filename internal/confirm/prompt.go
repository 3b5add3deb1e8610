package confirm

import (
	"fmt"

	"github.com/mpremote-tools/mpfs/internal/listing"
)

// PromptFor builds the question shown before op runs on p.
func PromptFor(op Op, p string) Prompt {
	p = listing.CleanPath(p)
	risk := RiskOf(op, p)
	pr := Prompt{Op: op, Path: p, Critical: risk == Critical}
	if pr.Critical {
		pr.Choices = []Choice{DeleteAnyway, Cancel}
	} else {
		pr.Choices = []Choice{Yes, Cancel, YesDontAsk}
	}
	name := listing.Base(p)

	switch op {
	case FileDelete:
		pr.Message = fmt.Sprintf("Delete the file %q?", name)
		switch {
		case systemFiles[p]:
			pr.Detail = fmt.Sprintf("%q is a system file (%s). It should normally never be deleted.", name, p)
		case listing.Within(p, LibRoot):
			pr.Detail = fmt.Sprintf("%q is in the library folder (%s). Deleting it can break scripts that depend on it.", name, p)
		}
	case FolderDelete:
		pr.Message = fmt.Sprintf("Delete the folder %q and everything in it? This cannot be undone.", name)
		switch {
		case p == "/":
			pr.Message = "Delete everything on the device? This cannot be undone."
			pr.Detail = "This removes every file and folder, including boot.py, main.py and /lib."
		case p == LibRoot:
			pr.Detail = fmt.Sprintf("You are about to delete the main library folder (%s). The device will likely be unusable until its packages are reinstalled.", p)
		case listing.Within(p, LibRoot):
			pr.Detail = fmt.Sprintf("You are about to delete a folder inside the library folder (%s). This can break scripts that depend on it.", p)
		case systemFiles[p]:
			pr.Detail = fmt.Sprintf("%q has the name of a system file (%s).", name, p)
		}
	case Wipe:
		pr.Message = "Delete everything on the device? This cannot be undone."
		pr.Detail = "This removes every file and folder, including boot.py, main.py and /lib."
	}
	return pr
}
