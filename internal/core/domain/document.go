package domain

type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// DirEntry est une entrée du listing d'un répertoire du backend.
type DirEntry struct {
	Name string
	Type EntryType
}

// File est le contenu brut d'un fichier et son jeton de version.
type File struct {
	Content []byte
	Version string
}

// Document : une entité sérialisée à un chemin unique, avec sa version.
type Document struct {
	Path    string
	Content []byte
	Version string
}
