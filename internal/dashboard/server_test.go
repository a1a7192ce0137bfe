package dashboard_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyemirov/docrun/internal/analysis"
	"github.com/tyemirov/docrun/internal/dashboard"
	"go.uber.org/zap"
)

type fakeDocumentAnalyzer struct {
	report        analysis.PageReport
	analyzeError  error
	recordedPages []int
	recordedDPIs  []int
}

func (analyzer *fakeDocumentAnalyzer) AnalyzePage(_ context.Context, documentPath string, pageNumber int, renderDPI int, _ string) (analysis.PageReport, error) {
	analyzer.recordedPages = append(analyzer.recordedPages, pageNumber)
	analyzer.recordedDPIs = append(analyzer.recordedDPIs, renderDPI)
	if analyzer.analyzeError != nil {
		return analysis.PageReport{}, analyzer.analyzeError
	}
	report := analyzer.report
	report.DocumentPath = documentPath
	report.PageNumber = pageNumber
	return report, nil
}

func buildMultipartAnalyzeRequest(testInstance *testing.T, includeDocument bool, formFields map[string]string) *http.Request {
	testInstance.Helper()

	requestBody := &bytes.Buffer{}
	multipartWriter := multipart.NewWriter(requestBody)

	if includeDocument {
		documentWriter, formError := multipartWriter.CreateFormFile("document", "invoice.pdf")
		require.NoError(testInstance, formError)
		_, writeError := documentWriter.Write([]byte("%PDF-1.4 fixture"))
		require.NoError(testInstance, writeError)
	}
	for fieldName, fieldValue := range formFields {
		require.NoError(testInstance, multipartWriter.WriteField(fieldName, fieldValue))
	}
	require.NoError(testInstance, multipartWriter.Close())

	request := httptest.NewRequest(http.MethodPost, "/analyze", requestBody)
	request.Header.Set("Content-Type", multipartWriter.FormDataContentType())
	return request
}

func TestNewServerRequiresAnalyzer(testInstance *testing.T) {
	_, serverError := dashboard.NewServer(nil, zap.NewNop(), dashboard.Options{})
	require.ErrorIs(testInstance, serverError, dashboard.ErrAnalyzerNotConfigured)
}

func TestServerHealthEndpoint(testInstance *testing.T) {
	server, serverError := dashboard.NewServer(&fakeDocumentAnalyzer{}, zap.NewNop(), dashboard.Options{})
	require.NoError(testInstance, serverError)

	responseRecorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(responseRecorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(testInstance, http.StatusOK, responseRecorder.Code)
	require.JSONEq(testInstance, `{"status":"ok"}`, responseRecorder.Body.String())
}

func TestServerUploadFormEndpoint(testInstance *testing.T) {
	server, serverError := dashboard.NewServer(&fakeDocumentAnalyzer{}, zap.NewNop(), dashboard.Options{})
	require.NoError(testInstance, serverError)

	responseRecorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(responseRecorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(testInstance, http.StatusOK, responseRecorder.Code)
	require.Contains(testInstance, responseRecorder.Body.String(), "multipart/form-data")
}

func TestServerAnalyzeEndpoint(testInstance *testing.T) {
	analyzer := &fakeDocumentAnalyzer{
		report: analysis.PageReport{ExtractedComponents: 3, UniqueComponents: 2, DuplicateComponents: 1},
	}
	server, serverError := dashboard.NewServer(analyzer, zap.NewNop(), dashboard.Options{})
	require.NoError(testInstance, serverError)

	request := buildMultipartAnalyzeRequest(testInstance, true, map[string]string{"page": "2", "dpi": "300"})
	responseRecorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(responseRecorder, request)

	require.Equal(testInstance, http.StatusOK, responseRecorder.Code)
	require.Equal(testInstance, []int{2}, analyzer.recordedPages)
	require.Equal(testInstance, []int{300}, analyzer.recordedDPIs)

	var decodedReport analysis.PageReport
	require.NoError(testInstance, json.Unmarshal(responseRecorder.Body.Bytes(), &decodedReport))
	require.Equal(testInstance, 2, decodedReport.PageNumber)
	require.Equal(testInstance, 2, decodedReport.UniqueComponents)
}

func TestServerAnalyzeEndpointDefaultsPage(testInstance *testing.T) {
	analyzer := &fakeDocumentAnalyzer{}
	server, serverError := dashboard.NewServer(analyzer, zap.NewNop(), dashboard.Options{})
	require.NoError(testInstance, serverError)

	request := buildMultipartAnalyzeRequest(testInstance, true, nil)
	responseRecorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(responseRecorder, request)

	require.Equal(testInstance, http.StatusOK, responseRecorder.Code)
	require.Equal(testInstance, []int{1}, analyzer.recordedPages)
	require.Equal(testInstance, []int{0}, analyzer.recordedDPIs)
}

func TestServerAnalyzeEndpointValidation(testInstance *testing.T) {
	testCases := []struct {
		name            string
		includeDocument bool
		formFields      map[string]string
		expectedMessage string
	}{
		{name: "rejects_missing_document", includeDocument: false, expectedMessage: "document upload is required"},
		{name: "rejects_non_numeric_page", includeDocument: true, formFields: map[string]string{"page": "two"}, expectedMessage: "page must be a positive integer"},
		{name: "rejects_zero_page", includeDocument: true, formFields: map[string]string{"page": "0"}, expectedMessage: "page must be a positive integer"},
		{name: "rejects_negative_page", includeDocument: true, formFields: map[string]string{"page": "-2"}, expectedMessage: "page must be a positive integer"},
		{name: "rejects_non_numeric_dpi", includeDocument: true, formFields: map[string]string{"dpi": "fine"}, expectedMessage: "dpi must be an integer"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			server, serverError := dashboard.NewServer(&fakeDocumentAnalyzer{}, zap.NewNop(), dashboard.Options{})
			require.NoError(subtestInstance, serverError)

			request := buildMultipartAnalyzeRequest(subtestInstance, testCase.includeDocument, testCase.formFields)
			responseRecorder := httptest.NewRecorder()
			server.Handler().ServeHTTP(responseRecorder, request)

			require.Equal(subtestInstance, http.StatusBadRequest, responseRecorder.Code)
			require.Contains(subtestInstance, responseRecorder.Body.String(), testCase.expectedMessage)
		})
	}
}

func TestServerAnalyzeEndpointReportsAnalysisFailure(testInstance *testing.T) {
	analyzer := &fakeDocumentAnalyzer{analyzeError: errors.New("component area not found")}
	server, serverError := dashboard.NewServer(analyzer, zap.NewNop(), dashboard.Options{})
	require.NoError(testInstance, serverError)

	request := buildMultipartAnalyzeRequest(testInstance, true, nil)
	responseRecorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(responseRecorder, request)

	require.Equal(testInstance, http.StatusUnprocessableEntity, responseRecorder.Code)
	require.Contains(testInstance, responseRecorder.Body.String(), "component area not found")
}

func TestServerRunStopsOnContextCancellation(testInstance *testing.T) {
	server, serverError := dashboard.NewServer(&fakeDocumentAnalyzer{}, zap.NewNop(), dashboard.Options{ListenAddress: "127.0.0.1:0"})
	require.NoError(testInstance, serverError)

	executionContext, cancelExecution := context.WithCancel(context.Background())
	runResults := make(chan error, 1)
	go func() { runResults <- server.Run(executionContext) }()

	cancelExecution()
	require.NoError(testInstance, <-runResults)
}
