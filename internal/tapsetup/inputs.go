package tapsetup

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	ownerFieldNameConstant                 = "owner"
	tapFieldNameConstant                   = "tap"
	repositoryNameFieldNameConstant        = "repo name"
	formulaNameFieldNameConstant           = "formula name"
	requiredFieldTemplateConstant          = "%s is required"
	slashForbiddenTemplateConstant         = "%s must not include '/'"
	whitespaceForbiddenTemplateConstant    = "%s must not contain whitespace"
	formulaURLRequiredMessageConstant      = "formula url is required when formula mode is brew-create"
	tapRepositoryPrefixConstant            = "homebrew-"
	repositorySlugTemplateConstant         = "%s/%s"
	homebrewPrefixNoticeTemplateConstant   = "tap short name includes 'homebrew-'; default repo would become 'homebrew-%s'"
	repositoryMismatchNoticeConstant       = "repo name does not match homebrew-<short>; 'brew tap %s/%s' shorthand may not work"
	defaultBranchNameConstant              = "main"
	archiveQuerySeparatorConstant          = "?"
	archiveFragmentSeparatorConstant       = "#"
	unsupportedVisibilityTemplateConstant  = "unsupported visibility %q"
	unsupportedFormulaModeTemplateConstant = "unsupported formula mode %q"
)

// Visibility describes the requested repository visibility.
type Visibility string

// Supported visibility values.
const (
	VisibilityPublic  Visibility = Visibility("public")
	VisibilityPrivate Visibility = Visibility("private")
)

// FormulaMode selects how the formula file is produced.
type FormulaMode string

// Supported formula modes.
const (
	FormulaModeStub       FormulaMode = FormulaMode("stub")
	FormulaModeBrewCreate FormulaMode = FormulaMode("brew-create")
)

var archiveSuffixes = []string{".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".zip"}

// RunInputs captures the immutable inputs of a provisioning run.
type RunInputs struct {
	Owner          string      `json:"owner"`
	TapShortName   string      `json:"tap"`
	RepositoryName string      `json:"repo_name"`
	Visibility     Visibility  `json:"visibility"`
	BranchName     string      `json:"branch"`
	FormulaMode    FormulaMode `json:"formula_mode"`
	FormulaURL     string      `json:"formula_url,omitempty"`
	FormulaName    string      `json:"formula_name,omitempty"`
	DryRun         bool        `json:"dry_run"`
}

// InvalidInputsError reports a rejected run input value.
type InvalidInputsError struct {
	Message string
}

// Error describes the rejected input.
func (inputsError InvalidInputsError) Error() string {
	return inputsError.Message
}

// NewRunInputs normalizes and validates candidate inputs. The returned notices
// describe accepted-but-suspicious values the operator should see.
func NewRunInputs(candidate RunInputs) (RunInputs, []string, error) {
	normalized := candidate
	notices := []string{}

	owner, ownerError := normalizeToken(ownerFieldNameConstant, candidate.Owner)
	if ownerError != nil {
		return RunInputs{}, nil, ownerError
	}
	normalized.Owner = owner

	tapShortName, tapError := normalizeToken(tapFieldNameConstant, candidate.TapShortName)
	if tapError != nil {
		return RunInputs{}, nil, tapError
	}
	normalized.TapShortName = tapShortName

	branchName := strings.TrimSpace(candidate.BranchName)
	if len(branchName) == 0 {
		branchName = defaultBranchNameConstant
	}
	normalized.BranchName = branchName

	switch candidate.Visibility {
	case VisibilityPublic, VisibilityPrivate:
	case "":
		normalized.Visibility = VisibilityPublic
	default:
		return RunInputs{}, nil, InvalidInputsError{Message: fmt.Sprintf(unsupportedVisibilityTemplateConstant, candidate.Visibility)}
	}

	switch candidate.FormulaMode {
	case FormulaModeStub, FormulaModeBrewCreate:
	case "":
		normalized.FormulaMode = FormulaModeStub
	default:
		return RunInputs{}, nil, InvalidInputsError{Message: fmt.Sprintf(unsupportedFormulaModeTemplateConstant, candidate.FormulaMode)}
	}

	normalized.FormulaURL = strings.TrimSpace(candidate.FormulaURL)
	if normalized.FormulaMode == FormulaModeBrewCreate && len(normalized.FormulaURL) == 0 {
		return RunInputs{}, nil, InvalidInputsError{Message: formulaURLRequiredMessageConstant}
	}

	if len(strings.TrimSpace(candidate.FormulaName)) > 0 {
		formulaName, formulaNameError := normalizeToken(formulaNameFieldNameConstant, candidate.FormulaName)
		if formulaNameError != nil {
			return RunInputs{}, nil, formulaNameError
		}
		normalized.FormulaName = formulaName
	} else {
		normalized.FormulaName = ""
	}

	if strings.HasPrefix(tapShortName, tapRepositoryPrefixConstant) {
		notices = append(notices, fmt.Sprintf(homebrewPrefixNoticeTemplateConstant, tapShortName))
	}

	defaultRepositoryName := tapRepositoryPrefixConstant + tapShortName
	if len(strings.TrimSpace(candidate.RepositoryName)) > 0 {
		repositoryName, repositoryNameError := normalizeToken(repositoryNameFieldNameConstant, candidate.RepositoryName)
		if repositoryNameError != nil {
			return RunInputs{}, nil, repositoryNameError
		}
		normalized.RepositoryName = repositoryName
	} else {
		normalized.RepositoryName = defaultRepositoryName
	}

	if normalized.RepositoryName != defaultRepositoryName {
		notices = append(notices, fmt.Sprintf(repositoryMismatchNoticeConstant, owner, tapShortName))
	}

	return normalized, notices, nil
}

// RepositorySlug returns the owner-qualified repository name.
func (inputs RunInputs) RepositorySlug() string {
	return fmt.Sprintf(repositorySlugTemplateConstant, inputs.Owner, inputs.RepositoryName)
}

// PreferredTapIdentifier returns the identifier operators should pass to brew
// tap: the short form when the repository follows the homebrew-<tap> naming
// convention, the full slug otherwise.
func (inputs RunInputs) PreferredTapIdentifier() string {
	if inputs.RepositoryName == tapRepositoryPrefixConstant+inputs.TapShortName {
		return fmt.Sprintf(repositorySlugTemplateConstant, inputs.Owner, inputs.TapShortName)
	}
	return inputs.RepositorySlug()
}

// TapIdentifierCandidates returns every identifier under which the tap may be
// registered locally.
func (inputs RunInputs) TapIdentifierCandidates() []string {
	candidates := []string{inputs.RepositorySlug()}
	shorthand := fmt.Sprintf(repositorySlugTemplateConstant, inputs.Owner, inputs.TapShortName)
	if inputs.RepositoryName == tapRepositoryPrefixConstant+inputs.TapShortName {
		candidates = append(candidates, shorthand)
	}
	return candidates
}

// EquivalentTo reports whether two input sets describe the same run. The
// dry-run flag is excluded so a dry run can be resumed for real.
func (inputs RunInputs) EquivalentTo(other RunInputs) bool {
	comparable := inputs
	comparable.DryRun = false
	otherComparable := other
	otherComparable.DryRun = false
	return comparable == otherComparable
}

// DeriveFormulaNameFromURL guesses a formula name from a source tarball URL by
// stripping query parameters, archive suffixes, and a trailing version segment.
func DeriveFormulaNameFromURL(sourceURL string) string {
	withoutQuery, _, _ := strings.Cut(sourceURL, archiveQuerySeparatorConstant)
	withoutFragment, _, _ := strings.Cut(withoutQuery, archiveFragmentSeparatorConstant)

	fileName := withoutFragment
	if slashIndex := strings.LastIndex(withoutFragment, "/"); slashIndex >= 0 {
		fileName = withoutFragment[slashIndex+1:]
	}

	baseName := fileName
	for _, archiveSuffix := range archiveSuffixes {
		if stripped, hadSuffix := strings.CutSuffix(baseName, archiveSuffix); hadSuffix {
			baseName = stripped
			break
		}
	}

	if hyphenIndex := strings.LastIndex(baseName, "-"); hyphenIndex >= 0 {
		versionCandidate := baseName[hyphenIndex+1:]
		if looksLikeVersionSegment(versionCandidate) {
			baseName = baseName[:hyphenIndex]
		}
	}

	return baseName
}

func looksLikeVersionSegment(candidate string) bool {
	if len(candidate) == 0 {
		return false
	}
	firstRune := []rune(candidate)[0]
	return unicode.IsDigit(firstRune) || firstRune == 'v'
}

func normalizeToken(fieldLabel string, candidateValue string) (string, error) {
	trimmedValue := strings.TrimSpace(candidateValue)
	if len(trimmedValue) == 0 {
		return "", InvalidInputsError{Message: fmt.Sprintf(requiredFieldTemplateConstant, fieldLabel)}
	}
	if strings.Contains(trimmedValue, "/") {
		return "", InvalidInputsError{Message: fmt.Sprintf(slashForbiddenTemplateConstant, fieldLabel)}
	}
	if strings.ContainsFunc(trimmedValue, unicode.IsSpace) {
		return "", InvalidInputsError{Message: fmt.Sprintf(whitespaceForbiddenTemplateConstant, fieldLabel)}
	}
	return trimmedValue, nil
}
