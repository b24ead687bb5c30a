package errors

// 知识库模块错误码: 21
// 错误码格式: AABBCCC
// - AA: 21 (知识库)
// - BB: 类别代码
// - CCC: 序号

var (
	// 输入错误 (类别 01)
	ErrInvalidDocument     = newRequestErr(ServiceKB, 1, "Document cannot be loaded", "文档无法加载")
	ErrUnsupportedDocument = newRequestErr(ServiceKB, 2, "Unsupported document type", "不支持的文档类型")
	ErrInvalidArgument     = newRequestErr(ServiceKB, 3, "Invalid argument", "参数无效")
	ErrQueryDimension      = newRequestErr(ServiceKB, 4, "Query vector dimension mismatch", "查询向量维度不匹配")

	// 未找到 (类别 04)
	ErrChunkNotFound         = newNotFoundErr(ServiceKB, 1, "Chunk not found", "文本块不存在")
	ErrChunkAmbiguous        = newNotFoundErr(ServiceKB, 2, "Chunk id maps to multiple rows", "文本块编号对应多行记录")
	ErrFileNotFound          = newNotFoundErr(ServiceKB, 3, "File not found in registry", "文件未登记")
	ErrKnowledgeBaseNotFound = newNotFoundErr(ServiceKB, 4, "Knowledge base not found", "知识库不存在")

	// 冲突 (类别 05)
	ErrDuplicateKnowledgeBase = newConflictErr(ServiceKB, 1, "Knowledge base listed more than once", "知识库重复")

	// 存储错误 (类别 08)
	ErrIndexPersist  = newDatabaseErr(ServiceKB, 1, "Vector index persistence failed", "向量索引持久化失败")
	ErrMetadataWrite = newDatabaseErr(ServiceKB, 2, "Metadata store write failed", "元数据写入失败")
	ErrMetadataRead  = newDatabaseErr(ServiceKB, 3, "Metadata store read failed", "元数据读取失败")

	// 外部服务错误 (类别 10)
	ErrEmbeddingFailed  = newNetworkErr(ServiceKB, 1, "Embedding provider failed", "向量化服务调用失败")
	ErrGenerationFailed = newNetworkErr(ServiceKB, 2, "Generation provider failed", "生成服务调用失败")

	// 一致性错误 (类别 13)
	ErrDimensionMismatch = newConsistencyErr(ServiceKB, 1, "Vector dimension mismatch", "向量维度不一致")
	ErrLengthMismatch    = newConsistencyErr(ServiceKB, 2, "Vectors and ids length mismatch", "向量与编号数量不一致")
)
