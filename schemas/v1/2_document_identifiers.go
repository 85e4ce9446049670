package v1

// Schema patch 2 widens PACER document identifiers and adds the appellate
// case-management GUID to RECAP documents

func init() {
	patches.Register(
		2,
		`
-- The appellate case-management system issues its own GUID for filed
-- documents. The column is added with a temporary default so existing rows
-- backfill to the empty-string sentinel, then the default is dropped: inserts
-- must supply the value explicitly from then on.
ALTER TABLE {{ .SchemaName | default "public"}}.search_recapdocument ADD COLUMN acms_document_guid character varying(64) DEFAULT '' NOT NULL;
ALTER TABLE {{ .SchemaName | default "public"}}.search_recapdocument ALTER COLUMN acms_document_guid DROP DEFAULT;
ALTER TABLE {{ .SchemaName | default "public"}}.search_recapdocumentevent ADD COLUMN acms_document_guid character varying(64) DEFAULT '' NOT NULL;
ALTER TABLE {{ .SchemaName | default "public"}}.search_recapdocumentevent ALTER COLUMN acms_document_guid DROP DEFAULT;

COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocument.acms_document_guid IS 'Identifier issued by the appellate case-management system. Empty for documents sourced elsewhere.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocumentevent.acms_document_guid IS 'Identifier issued by the appellate case-management system. Empty for documents sourced elsewhere.';

-- PACER document identifiers outgrew varchar(32) once appellate identifiers
-- started appearing in the field. Event mirrors widen in lockstep.
ALTER TABLE {{ .SchemaName | default "public"}}.search_claimhistory ALTER COLUMN pacer_doc_id TYPE character varying(64);
ALTER TABLE {{ .SchemaName | default "public"}}.search_claimhistoryevent ALTER COLUMN pacer_doc_id TYPE character varying(64);
ALTER TABLE {{ .SchemaName | default "public"}}.search_recapdocument ALTER COLUMN pacer_doc_id TYPE character varying(64);
ALTER TABLE {{ .SchemaName | default "public"}}.search_recapdocumentevent ALTER COLUMN pacer_doc_id TYPE character varying(64);

-- No-ops, recorded for the audit trail: pacer_case_id on search_docket,
-- search_docketevent, search_claimhistory and search_claimhistoryevent
-- already satisfies its target definition of character varying(100). No
-- change required.
`,
	)
}
