package autoslug_test

import (
	"github.com/pitabwire/translationtools/autoslug"
	"github.com/pitabwire/translationtools/datastore"
)

func withHooks(s *autoslug.Slugger) datastore.TranslatableOption {
	return datastore.WithSaveHooks(s)
}
