package report

// Schema is the JSON Schema (Draft 2020-12) of the document written by
// Writer for the json output format.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/felixgeelhaar/covreport/report.schema.json",
  "title": "Coverage Report",
  "description": "Output schema for covreport report -o json",
  "type": "object",
  "required": ["passed", "reports", "thresholds", "unmet"],
  "properties": {
    "title": {
      "type": "string",
      "description": "Configured report title"
    },
    "passed": {
      "type": "boolean",
      "description": "True when no error-level requirement is unmet"
    },
    "reports": {
      "type": "array",
      "items": { "$ref": "#/$defs/Report" }
    },
    "global": { "$ref": "#/$defs/Global" },
    "thresholds": { "$ref": "#/$defs/Requirements" },
    "unmet": {
      "type": "array",
      "items": { "$ref": "#/$defs/Unmet" }
    },
    "failures": {
      "type": "array",
      "items": { "$ref": "#/$defs/Failure" }
    }
  },
  "$defs": {
    "Report": {
      "type": "object",
      "required": ["path", "type", "overall", "files", "status"],
      "properties": {
        "path": { "type": "string" },
        "type": { "enum": ["jacoco", "lcov", "cobertura", "go"] },
        "title": { "type": "string" },
        "overall": { "$ref": "#/$defs/FileCoverage" },
        "files": {
          "type": "array",
          "items": { "$ref": "#/$defs/FileCoverage" }
        },
        "status": { "$ref": "#/$defs/Status" }
      }
    },
    "Global": {
      "type": "object",
      "required": ["overall", "status"],
      "properties": {
        "overall": { "$ref": "#/$defs/FileCoverage" },
        "status": { "$ref": "#/$defs/Status" }
      }
    },
    "FileCoverage": {
      "type": "object",
      "required": ["title", "lines", "functions", "branches", "statements"],
      "properties": {
        "title": { "type": "string" },
        "file": { "type": "string" },
        "lines": { "$ref": "#/$defs/Summary" },
        "functions": { "$ref": "#/$defs/Summary" },
        "branches": { "$ref": "#/$defs/Summary" },
        "statements": { "$ref": "#/$defs/Summary" }
      }
    },
    "Summary": {
      "type": "object",
      "required": ["found", "hit", "percentage"],
      "properties": {
        "found": { "type": "integer", "minimum": 0 },
        "hit": { "type": "integer", "minimum": 0 },
        "percentage": { "type": "number", "minimum": 0, "maximum": 100 }
      }
    },
    "Status": { "enum": ["PASS", "WARN", "FAIL"] },
    "Requirement": {
      "type": "object",
      "required": ["error", "warn"],
      "properties": {
        "error": { "type": "number", "minimum": 0, "maximum": 100 },
        "warn": { "type": "number", "minimum": 0, "maximum": 100 }
      }
    },
    "Requirements": {
      "type": "object",
      "required": ["file", "report", "global"],
      "properties": {
        "file": { "$ref": "#/$defs/Requirement" },
        "report": { "$ref": "#/$defs/Requirement" },
        "global": { "$ref": "#/$defs/Requirement" }
      }
    },
    "Unmet": {
      "type": "object",
      "required": ["title", "requirement", "coverage"],
      "properties": {
        "title": { "type": "string" },
        "file": { "type": "string" },
        "requirement": { "type": "number" },
        "coverage": { "type": "number" }
      }
    },
    "Failure": {
      "type": "object",
      "required": ["path", "error"],
      "properties": {
        "path": { "type": "string" },
        "error": { "type": "string" }
      }
    }
  }
}`
