package ttb

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

//SaveEnsemble writes the raw tree ensemble to a JSON file. The raw form is what
//gets persisted; compilation is cheap and happens after loading, so the stored
//model stays independent of the strategy chosen at load time.
func SaveEnsemble(fileName string, ensemble TreeEnsemble) error {
	dest, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "create %s", fileName)
	}
	defer func() { HandleError(dest.Close()) }()

	modelByteRepr, err := json.MarshalIndent(ensemble, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal ensemble")
	}
	if _, err := dest.Write(modelByteRepr); err != nil {
		return errors.Wrapf(err, "write %s", fileName)
	}
	return nil
}

//LoadEnsemble reads a raw tree ensemble from a JSON file.
func LoadEnsemble(fileName string) (TreeEnsemble, error) {
	var ensemble TreeEnsemble

	source, err := os.Open(fileName)
	if err != nil {
		return ensemble, errors.Wrapf(err, "open %s", fileName)
	}
	defer func() { HandleError(source.Close()) }()

	decoder := json.NewDecoder(source)
	if err := decoder.Decode(&ensemble); err != nil {
		return ensemble, errors.Wrapf(err, "decode %s", fileName)
	}
	return ensemble, nil
}
