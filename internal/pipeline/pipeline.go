// Package pipeline runs scan, prompt assembly, completion and persistence as one operation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/pmgen/internal/completion"
	"github.com/temirov/pmgen/internal/config"
	"github.com/temirov/pmgen/internal/output"
	"github.com/temirov/pmgen/internal/prompt"
	"github.com/temirov/pmgen/internal/scan"
	"github.com/temirov/pmgen/internal/services/clipboard"
	"github.com/temirov/pmgen/internal/strip"
	"github.com/temirov/pmgen/internal/tokenizer"
	"github.com/temirov/pmgen/internal/types"
)

const (
	logScanComplete     = "scan complete"
	logPromptAssembled  = "prompt assembled"
	logPromptPersisted  = "prompt written"
	logDryRun           = "dry run, skipping completion"
	logCompletionDone   = "completion received"
	logCompletionCut    = "completion truncated at max_tokens, document is likely incomplete"
	logDocumentWritten  = "document written"
	logClipboardCopied  = "document copied to clipboard"
	logClipboardFailed  = "clipboard copy failed"
	logSkippedEntry     = "skipped unreadable entry"
	logSkippedDebug     = "skipped entry"
	logSubmitting       = "submitting prompt"
	fieldReason         = "reason"
	fieldPromptBytes    = "prompt_bytes"
	fieldRunID          = "run_id"
	fieldFiles          = "files"
	fieldSkipped        = "skipped"
	fieldTokens         = "tokens"
	fieldModel          = "model"
	fieldOutput         = "output"
	fieldPath           = "path"
	fieldDetail         = "detail"
	fieldFinishReason   = "finish_reason"
	fieldCompletionSize = "completion_tokens"

	errorLoadIgnoreFormat   = "load ignore patterns: %w"
	errorScanFormat         = "scan %s: %w"
	errorAssembleFormat     = "assemble prompt: %w"
	errorCompleteFormat     = "request completion: %w"
	errorWritePromptFormat  = "write prompt: %w"
	errorWriteOutputFormat  = "write document: %w"
	errorMissingOutputPath  = "output path is required"
	errorMissingClientError = "completion client is required unless running dry"
)

// ErrMissingClient is returned when a non-dry run has no completion client.
var ErrMissingClient = errors.New(errorMissingClientError)

// Options describes one generation run.
type Options struct {
	Root            string
	Extensions      []string
	ExcludePatterns []string
	MaxFileSize     int64
	MaxDepth        int
	IncludeHidden   bool
	UseGitignore    bool
	UseIgnoreFile   bool
	StripComments   bool
	ReadConcurrency int

	Instruction string
	// ProjectName overrides detection from go.mod or package.json.
	ProjectName     string
	MaxPromptTokens int

	// Model and MaxTokens override the client configuration when set.
	// Sampling temperature is part of the client configuration only.
	Model     string
	MaxTokens int

	OutputPath string
	Force      bool
	FormatJSON bool
	// PromptOutputPath additionally persists the assembled prompt when set.
	PromptOutputPath string
	DryRun           bool
	CopyToClipboard  bool
}

// Dependencies are the collaborators of a run. Only Client is required, and
// only for runs that are not dry.
type Dependencies struct {
	Client    completion.Client
	Counter   tokenizer.Counter
	Clipboard clipboard.Copier
	Logger    *zap.Logger
}

// Result summarizes a run.
type Result struct {
	RunID        string
	Files        int
	Skipped      []types.SkippedFile
	PromptTokens int
	Prompt       string
	PromptPath   string
	OutputPath   string
	Model        string
	Truncated    bool
}

// Run scans options.Root, assembles the prompt, submits it and writes the
// extracted document. A dry run stops after the prompt is assembled.
func Run(ctx context.Context, options Options, dependencies Dependencies) (Result, error) {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String(fieldRunID, runID))

	if !options.DryRun {
		if dependencies.Client == nil {
			return Result{}, ErrMissingClient
		}
		if options.OutputPath == "" {
			return Result{}, errors.New(errorMissingOutputPath)
		}
	}

	scanResult, assembled, buildError := BuildPrompt(ctx, options, dependencies.Counter, logger)
	if buildError != nil {
		return Result{}, buildError
	}
	result := Result{
		RunID:        runID,
		Files:        assembled.Files,
		Skipped:      scanResult.Skipped,
		PromptTokens: assembled.Tokens,
		Prompt:       assembled.Text,
	}

	if options.PromptOutputPath != "" {
		promptPath, writeError := output.Write(options.PromptOutputPath, []byte(assembled.Text), output.WriteOptions{Force: options.Force})
		if writeError != nil {
			return result, fmt.Errorf(errorWritePromptFormat, writeError)
		}
		result.PromptPath = promptPath
		logger.Info(logPromptPersisted, zap.String(fieldOutput, promptPath))
	}

	if options.DryRun {
		logger.Info(logDryRun)
		return result, nil
	}

	logger.Debug(logSubmitting, zap.String(fieldModel, options.Model), zap.Int(fieldPromptBytes, len(assembled.Text)))
	response, completeError := dependencies.Client.Complete(ctx, completion.Request{
		Prompt:    assembled.Text,
		Model:     options.Model,
		MaxTokens: options.MaxTokens,
		User:      runID,
	})
	if completeError != nil {
		return result, fmt.Errorf(errorCompleteFormat, completeError)
	}
	result.Model = response.Model
	result.Truncated = response.Truncated
	logger.Info(logCompletionDone,
		zap.String(fieldModel, response.Model),
		zap.String(fieldFinishReason, response.FinishReason),
		zap.Int(fieldCompletionSize, response.CompletionTokens),
	)
	if response.Truncated {
		logger.Warn(logCompletionCut, zap.String(fieldModel, response.Model))
	}

	document := completion.ExtractDocument(response.Text)
	if strings.TrimSpace(document) == "" {
		return result, fmt.Errorf(errorCompleteFormat, completion.ErrEmptyCompletion)
	}
	var formatter output.Formatter = output.PassthroughFormatter{}
	if options.FormatJSON {
		formatter = output.JSONFormatter{}
	}
	outputPath, writeError := output.Write(options.OutputPath, []byte(document), output.WriteOptions{Force: options.Force, Formatter: formatter})
	if writeError != nil {
		return result, fmt.Errorf(errorWriteOutputFormat, writeError)
	}
	result.OutputPath = outputPath
	logger.Info(logDocumentWritten, zap.String(fieldOutput, outputPath))

	if options.CopyToClipboard && dependencies.Clipboard != nil {
		if copyError := dependencies.Clipboard.Copy(document); copyError != nil {
			logger.Warn(logClipboardFailed, zap.Error(copyError))
		} else {
			logger.Info(logClipboardCopied)
		}
	}
	return result, nil
}

// ScanProject loads ignore files under options.Root and returns the selected
// files with their content.
func ScanProject(ctx context.Context, options Options, logger *zap.Logger) (types.ScanResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ignorePatterns, ignoreError := config.LoadRecursiveIgnorePatterns(options.Root, config.IgnoreLoadOptions{
		UseGitignore:  options.UseGitignore,
		UseIgnoreFile: options.UseIgnoreFile,
	})
	if ignoreError != nil {
		return types.ScanResult{}, fmt.Errorf(errorLoadIgnoreFormat, ignoreError)
	}

	readOptions := scan.ReadOptions{Concurrency: options.ReadConcurrency}
	if options.StripComments {
		readOptions.Transformer = strip.NewStripper(logger)
	}
	scanResult, scanError := scan.Scan(ctx, scan.Options{
		Root:            options.Root,
		Extensions:      options.Extensions,
		ExcludePatterns: options.ExcludePatterns,
		IgnorePatterns:  ignorePatterns,
		MaxFileSize:     options.MaxFileSize,
		MaxDepth:        options.MaxDepth,
		IncludeHidden:   options.IncludeHidden,
	}, readOptions)
	if scanError != nil {
		return types.ScanResult{}, fmt.Errorf(errorScanFormat, options.Root, scanError)
	}

	for _, skipped := range scanResult.Skipped {
		if skipped.Reason == types.SkipReasonUnreadable {
			logger.Warn(logSkippedEntry, zap.String(fieldPath, skipped.RelativePath), zap.String(fieldDetail, skipped.Detail))
			continue
		}
		logger.Debug(logSkippedDebug, zap.String(fieldPath, skipped.RelativePath), zap.String(fieldReason, string(skipped.Reason)))
	}
	logger.Info(logScanComplete, zap.Int(fieldFiles, len(scanResult.Files)), zap.Int(fieldSkipped, len(scanResult.Skipped)))
	return scanResult, nil
}

// BuildPrompt scans the project and assembles its prompt without contacting the service.
func BuildPrompt(ctx context.Context, options Options, counter tokenizer.Counter, logger *zap.Logger) (types.ScanResult, prompt.Prompt, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	scanResult, scanError := ScanProject(ctx, options, logger)
	if scanError != nil {
		return types.ScanResult{}, prompt.Prompt{}, scanError
	}

	projectName := options.ProjectName
	if projectName == "" {
		projectName = prompt.DetectProjectName(scanResult.Root)
	}
	assembled, assembleError := prompt.Assemble(scanResult, prompt.Options{
		Instruction: options.Instruction,
		ProjectName: projectName,
		MaxTokens:   options.MaxPromptTokens,
		Counter:     counter,
	})
	if assembleError != nil {
		return scanResult, prompt.Prompt{}, fmt.Errorf(errorAssembleFormat, assembleError)
	}
	logger.Info(logPromptAssembled, zap.Int(fieldFiles, assembled.Files), zap.Int(fieldTokens, assembled.Tokens))
	return scanResult, assembled, nil
}
