// Package biz 提供知识库的业务编排层。
//
// 该包将业务逻辑拆分为以下组件：
//   - Indexer: 文档入库（加载、结构重建、分块、向量化、双写）
//   - Retriever: 向量检索并回查元数据
//   - Generator: 组装提示并调用生成模型
//   - Summarizer: 全文分段摘要
//   - Service: 组合以上组件，管理知识库生命周期与文件登记表
package biz
